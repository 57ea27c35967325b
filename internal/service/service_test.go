package service_test

import (
	"fmt"
	"testing"
	"time"

	"promptvault/internal/service"
	"promptvault/internal/storage"
)

// env wires the services against a throwaway SQLite database with
// deterministic ids, colors and clock.
type env struct {
	prompts  *service.Prompts
	tags     *service.Tags
	transfer *service.Transfer

	promptRepo  *storage.PromptRepo
	versionRepo *storage.VersionRepo
	tagRepo     *storage.TagRepo

	now time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	e := &env{
		promptRepo:  storage.NewPromptRepo(db),
		versionRepo: storage.NewVersionRepo(db),
		tagRepo:     storage.NewTagRepo(db),
		now:         time.UnixMilli(1_000_000),
	}

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	clock := func() time.Time { return e.now }

	e.prompts = service.NewPrompts(e.promptRepo, e.versionRepo, e.tagRepo)
	e.prompts.NewID = newID
	e.prompts.RandomColor = func() string { return "#123456" }
	e.prompts.Now = clock

	e.tags = service.NewTags(e.tagRepo, e.promptRepo)
	e.tags.NewID = newID

	e.transfer = service.NewTransfer(e.promptRepo, e.versionRepo)
	e.transfer.NewID = newID
	e.transfer.Now = clock

	return e
}

// advance moves the fake clock forward.
func (e *env) advance(d time.Duration) {
	e.now = e.now.Add(d)
}
