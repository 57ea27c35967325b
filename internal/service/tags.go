package service

import (
	"context"
	"errors"
	"log/slog"

	"promptvault/internal/storage"
	"promptvault/internal/tagtree"
)

// TagDraft carries the user-supplied fields of a tag create or edit.
type TagDraft struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// TagService provides tag management operations.
type TagService interface {
	// List returns all registered tags ordered by name.
	List(ctx context.Context) ([]storage.Tag, error)
	// Create registers a new tag. Duplicate names are rejected.
	Create(ctx context.Context, draft TagDraft) (*storage.Tag, error)
	// Update edits a tag. A rename rewrites the exact old path on every
	// prompt referencing it; descendants keep their own paths.
	Update(ctx context.Context, id string, draft TagDraft) (*storage.Tag, error)
	// Delete strips the tag's exact path from every prompt, then removes the
	// tag record.
	Delete(ctx context.Context, id string) error
	// Tree builds the hierarchy with direct and rollup counts.
	Tree(ctx context.Context) (*tagtree.Node, error)
}

// Tags implements TagService over the storage repositories.
type Tags struct {
	store   storage.TagStore
	prompts storage.PromptStore
	logger  *slog.Logger

	// NewID is substitutable in tests for determinism.
	NewID func() string
}

// NewTags creates the tag service.
func NewTags(store storage.TagStore, prompts storage.PromptStore) *Tags {
	return &Tags{
		store:   store,
		prompts: prompts,
		logger:  slog.Default(),
		NewID:   NewID,
	}
}

// List returns all registered tags ordered by name.
func (s *Tags) List(ctx context.Context) ([]storage.Tag, error) {
	tags, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	return tags, nil
}

// Create registers a new tag.
func (s *Tags) Create(ctx context.Context, draft TagDraft) (*storage.Tag, error) {
	if err := validateTagDraft(draft); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByName(ctx, draft.Name); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, WrapError(err, "failed to look up tag")
	}

	tag := &storage.Tag{
		ID:          s.NewID(),
		Name:        draft.Name,
		Color:       draft.Color,
		Description: draft.Description,
	}
	if err := s.store.Insert(ctx, tag); err != nil {
		return nil, WrapError(err, "failed to insert tag")
	}
	s.logger.InfoContext(ctx, "tag created", "name", tag.Name)
	return tag, nil
}

// Update edits a tag, propagating a rename to every referencing prompt.
func (s *Tags) Update(ctx context.Context, id string, draft TagDraft) (*storage.Tag, error) {
	if err := validateTagDraft(draft); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to load tag")
	}

	if draft.Name != existing.Name {
		if other, err := s.store.GetByName(ctx, draft.Name); err == nil && other.ID != id {
			return nil, ErrAlreadyExists
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(err, "failed to look up tag")
		}
	}

	updated := &storage.Tag{
		ID:          existing.ID,
		Name:        draft.Name,
		Color:       draft.Color,
		Description: draft.Description,
	}
	if draft.Name != existing.Name {
		// Rename commits the tag row and the prompt rewrites together.
		touched, err := s.store.Rename(ctx, updated, existing.Name)
		if err != nil {
			return nil, WrapError(err, "failed to rename tag")
		}
		s.logger.InfoContext(ctx, "tag renamed", "from", existing.Name, "to", draft.Name, "prompts", touched)
		return updated, nil
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, WrapError(err, "failed to update tag")
	}
	return updated, nil
}

// Delete strips the tag from every prompt, then removes the record.
func (s *Tags) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return WrapError(err, "failed to load tag")
	}

	touched, err := s.prompts.RemoveTag(ctx, existing.Name)
	if err != nil {
		return WrapError(err, "failed to strip tag from prompts")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return WrapError(err, "failed to delete tag")
	}
	s.logger.InfoContext(ctx, "tag deleted", "name", existing.Name, "prompts", touched)
	return nil
}

// Tree builds the hierarchy with direct and rollup counts against the live
// prompt set.
func (s *Tags) Tree(ctx context.Context) (*tagtree.Node, error) {
	tags, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	prompts, err := s.prompts.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list prompts")
	}
	return tagtree.Build(tags, prompts), nil
}

func validateTagDraft(draft TagDraft) error {
	if v := tagtree.ValidateTagName(draft.Name); !v.Valid {
		return &ValidationError{Field: "name", Message: v.Error}
	}
	if v := tagtree.ValidateColor(draft.Color); !v.Valid {
		return &ValidationError{Field: "color", Message: v.Error}
	}
	return nil
}
