package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func seedPrompt(t *testing.T, repo *PromptRepo, id string, tags []string) *Prompt {
	t.Helper()

	p := &Prompt{
		ID:          id,
		Title:       "Title " + id,
		Description: "Description " + id,
		Content:     "Content " + id,
		Tags:        tags,
		CreatedAt:   1000,
		ModifiedAt:  2000,
		UsageCount:  0,
	}
	if err := repo.Insert(context.Background(), p); err != nil {
		t.Fatalf("Insert(%s) error = %v", id, err)
	}
	return p
}

func TestPromptRepo_InsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	want := seedPrompt(t, repo, "p1", []string{"coding/go", "writing"})

	got, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != want.Title || got.Description != want.Description || got.Content != want.Content {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "coding/go" || got.Tags[1] != "writing" {
		t.Errorf("Get() tags = %v, want order-preserving round trip", got.Tags)
	}
	if got.CreatedAt != 1000 || got.ModifiedAt != 2000 {
		t.Errorf("Get() timestamps = %d, %d; want 1000, 2000", got.CreatedAt, got.ModifiedAt)
	}
}

func TestPromptRepo_Get_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPromptRepo_EmptyTagsRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	seedPrompt(t, repo, "p1", nil)

	got, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Get() tags = %#v, want empty non-nil slice", got.Tags)
	}
}

func TestPromptRepo_List_NewestFirst(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	for i, modified := range []int64{100, 300, 200} {
		p := seedPrompt(t, repo, fmt.Sprintf("p%d", i+1), nil)
		p.ModifiedAt = modified
		if err := repo.Update(context.Background(), p); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	prompts, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(prompts) != 3 {
		t.Fatalf("List() returned %d prompts, want 3", len(prompts))
	}
	if prompts[0].ID != "p2" || prompts[1].ID != "p3" || prompts[2].ID != "p1" {
		t.Errorf("List() order = %s, %s, %s; want newest first", prompts[0].ID, prompts[1].ID, prompts[2].ID)
	}
}

func TestPromptRepo_Update_NotFound(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	err := repo.Update(context.Background(), &Prompt{ID: "missing", Tags: []string{}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestPromptRepo_Delete_CascadesVersions(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)
	versions := NewVersionRepo(db)

	seedPrompt(t, repo, "p1", nil)
	v := &Version{ID: "v1", PromptID: "p1", Title: "old", Timestamp: 500, VersionNumber: 1}
	if err := versions.Insert(context.Background(), v); err != nil {
		t.Fatalf("Insert(version) error = %v", err)
	}

	if err := repo.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	count, err := versions.CountByPrompt(context.Background(), "p1")
	if err != nil {
		t.Fatalf("CountByPrompt() error = %v", err)
	}
	if count != 0 {
		t.Errorf("versions after delete = %d, want 0 (cascade)", count)
	}
}

func TestPromptRepo_IncrementUsage(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	seedPrompt(t, repo, "p1", nil)

	for i := 0; i < 3; i++ {
		if err := repo.IncrementUsage(context.Background(), "p1"); err != nil {
			t.Fatalf("IncrementUsage() error = %v", err)
		}
	}

	got, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UsageCount != 3 {
		t.Errorf("UsageCount = %d, want 3", got.UsageCount)
	}
	if got.ModifiedAt != 2000 {
		t.Errorf("ModifiedAt = %d, want untouched 2000", got.ModifiedAt)
	}
}

func TestPromptRepo_RemoveTag(t *testing.T) {
	db := testDB(t)
	repo := NewPromptRepo(db)

	seedPrompt(t, repo, "p1", []string{"x/y", "keep"})
	seedPrompt(t, repo, "p2", []string{"x/y/q"})

	touched, err := repo.RemoveTag(context.Background(), "x/y")
	if err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}
	if touched != 1 {
		t.Errorf("RemoveTag() touched %d prompts, want 1", touched)
	}

	p1, _ := repo.Get(context.Background(), "p1")
	if len(p1.Tags) != 1 || p1.Tags[0] != "keep" {
		t.Errorf("p1 tags = %v, want [keep]", p1.Tags)
	}
	p2, _ := repo.Get(context.Background(), "p2")
	if len(p2.Tags) != 1 || p2.Tags[0] != "x/y/q" {
		t.Errorf("p2 tags = %v, want descendant path untouched", p2.Tags)
	}
}
