package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_prompt_service.go -package=mocks -mock_names=PromptService=MockPromptService promptvault/internal/service PromptService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"promptvault/internal/history"
	"promptvault/internal/storage"
	"promptvault/internal/tagtree"
)

// PromptDraft carries the user-supplied fields of a save. An empty ID means
// a new prompt.
type PromptDraft struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
}

// ListFilter narrows List results. Zero value means everything.
type ListFilter struct {
	// Tag keeps only prompts whose tag set contains this exact path.
	Tag string
	// Query keeps prompts whose title, description or content contains the
	// text, case-insensitively.
	Query string
}

// AssignResult reports the outcome of a tag assignment. Added is false when
// the prompt already carried the tag, so callers can skip notification.
type AssignResult struct {
	Prompt *storage.Prompt
	Added  bool
}

// PromptService provides prompt lifecycle operations.
type PromptService interface {
	// Save creates or updates a prompt, capturing a version snapshot of the
	// superseded state when content, title or description changed.
	Save(ctx context.Context, draft PromptDraft) (*storage.Prompt, error)
	// Get returns a single prompt.
	Get(ctx context.Context, id string) (*storage.Prompt, error)
	// List returns prompts matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]storage.Prompt, error)
	// Delete removes a prompt and all of its version history.
	Delete(ctx context.Context, id string) error
	// Use records one use/copy of the prompt and returns the updated record.
	Use(ctx context.Context, id string) (*storage.Prompt, error)
	// Versions returns a prompt's history, oldest first.
	Versions(ctx context.Context, id string) ([]storage.Version, error)
	// AssignTag adds a tag path to a prompt, creating the tag record if it
	// does not exist yet.
	AssignTag(ctx context.Context, id, tagPath string) (AssignResult, error)
}

// Prompts implements PromptService over the storage repositories.
type Prompts struct {
	store    storage.PromptStore
	versions storage.VersionStore
	tags     storage.TagStore
	logger   *slog.Logger

	// NewID, RandomColor and Now are substitutable in tests for determinism.
	NewID       func() string
	RandomColor func() string
	Now         func() time.Time
}

// NewPrompts creates the prompt service.
func NewPrompts(store storage.PromptStore, versions storage.VersionStore, tags storage.TagStore) *Prompts {
	return &Prompts{
		store:       store,
		versions:    versions,
		tags:        tags,
		logger:      slog.Default(),
		NewID:       NewID,
		RandomColor: RandomColor,
		Now:         time.Now,
	}
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.New().String()
}

// RandomColor returns a random #RRGGBB color for auto-created tags.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0x1000000))
}

// Save validates the draft, reconciles version history, writes the prompt and
// auto-creates tag records for any tag path not registered yet.
func (s *Prompts) Save(ctx context.Context, draft PromptDraft) (*storage.Prompt, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil, &ValidationError{Field: "content", Message: "cannot be empty"}
	}
	tags := dedupeTags(draft.Tags)
	for _, tag := range tags {
		if v := tagtree.ValidateTagName(tag); !v.Valid {
			return nil, &ValidationError{Field: "tags", Message: v.Error}
		}
	}

	var prev *storage.Prompt
	if draft.ID != "" {
		existing, err := s.store.Get(ctx, draft.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(err, "failed to load prompt")
		}
		prev = existing
	}

	now := s.Now().UnixMilli()

	// The version count is read at decision time so numbering stays
	// sequential even under rapid consecutive edits.
	if prev != nil {
		count, err := s.versions.CountByPrompt(ctx, prev.ID)
		if err != nil {
			return nil, WrapError(err, "failed to count versions")
		}
		if snap := history.Reconcile(prev, draft.Title, draft.Description, draft.Content, count); snap != nil {
			v := &storage.Version{
				ID:            s.NewID(),
				PromptID:      snap.PromptID,
				Title:         snap.Title,
				Description:   snap.Description,
				Content:       snap.Content,
				Timestamp:     snap.Timestamp,
				VersionNumber: snap.VersionNumber,
			}
			if err := s.versions.Insert(ctx, v); err != nil {
				return nil, WrapError(err, "failed to store version snapshot")
			}
			s.logger.InfoContext(ctx, "version snapshot captured", "prompt_id", prev.ID, "version", snap.VersionNumber)
		}
	}

	prompt := &storage.Prompt{
		Title:       draft.Title,
		Description: draft.Description,
		Content:     draft.Content,
		Tags:        tags,
		ModifiedAt:  now,
	}

	if prev != nil {
		prompt.ID = prev.ID
		prompt.CreatedAt = prev.CreatedAt
		prompt.UsageCount = prev.UsageCount
		if err := s.store.Update(ctx, prompt); err != nil {
			return nil, WrapError(err, "failed to update prompt")
		}
	} else {
		prompt.ID = draft.ID
		if prompt.ID == "" {
			prompt.ID = s.NewID()
		}
		prompt.CreatedAt = now
		if err := s.store.Insert(ctx, prompt); err != nil {
			return nil, WrapError(err, "failed to insert prompt")
		}
	}

	if err := s.ensureTags(ctx, prompt.Tags); err != nil {
		return nil, err
	}

	return prompt, nil
}

// Get returns a single prompt.
func (s *Prompts) Get(ctx context.Context, id string) (*storage.Prompt, error) {
	prompt, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to load prompt")
	}
	return prompt, nil
}

// List returns prompts matching the filter, newest first.
func (s *Prompts) List(ctx context.Context, filter ListFilter) ([]storage.Prompt, error) {
	prompts, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list prompts")
	}

	if filter.Tag == "" && filter.Query == "" {
		return prompts, nil
	}

	query := strings.ToLower(filter.Query)
	filtered := make([]storage.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if filter.Tag != "" && !containsString(p.Tags, filter.Tag) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

// Delete removes a prompt and cascades to all of its versions.
func (s *Prompts) Delete(ctx context.Context, id string) error {
	if err := s.versions.DeleteByPrompt(ctx, id); err != nil {
		return WrapError(err, "failed to delete versions")
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return WrapError(err, "failed to delete prompt")
	}
	s.logger.InfoContext(ctx, "prompt deleted", "prompt_id", id)
	return nil
}

// Use records one use/copy of the prompt. Usage never touches modifiedAt and
// never produces a version snapshot.
func (s *Prompts) Use(ctx context.Context, id string) (*storage.Prompt, error) {
	err := s.store.IncrementUsage(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to record usage")
	}
	return s.Get(ctx, id)
}

// Versions returns a prompt's history, oldest first.
func (s *Prompts) Versions(ctx context.Context, id string) ([]storage.Version, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByPrompt(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list versions")
	}
	return versions, nil
}

// AssignTag adds a tag path to a prompt, for example via drag-and-drop onto a
// tree node. Assigning a tag the prompt already carries is a silent no-op.
func (s *Prompts) AssignTag(ctx context.Context, id, tagPath string) (AssignResult, error) {
	if v := tagtree.ValidateTagName(tagPath); !v.Valid {
		return AssignResult{}, &ValidationError{Field: "tag", Message: v.Error}
	}

	prompt, err := s.Get(ctx, id)
	if err != nil {
		return AssignResult{}, err
	}

	if containsString(prompt.Tags, tagPath) {
		return AssignResult{Prompt: prompt, Added: false}, nil
	}

	prompt.Tags = append(prompt.Tags, tagPath)
	prompt.ModifiedAt = s.Now().UnixMilli()
	if err := s.store.Update(ctx, prompt); err != nil {
		return AssignResult{}, WrapError(err, "failed to update prompt")
	}

	if err := s.ensureTags(ctx, []string{tagPath}); err != nil {
		return AssignResult{}, err
	}

	return AssignResult{Prompt: prompt, Added: true}, nil
}

// ensureTags auto-creates a tag record, with a random color, for every path
// that has none yet.
func (s *Prompts) ensureTags(ctx context.Context, paths []string) error {
	for _, path := range paths {
		_, err := s.tags.GetByName(ctx, path)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return WrapError(err, "failed to look up tag")
		}
		tag := &storage.Tag{
			ID:    s.NewID(),
			Name:  path,
			Color: s.RandomColor(),
		}
		if err := s.tags.Insert(ctx, tag); err != nil {
			return WrapError(err, "failed to auto-create tag")
		}
		s.logger.InfoContext(ctx, "tag auto-created", "name", path)
	}
	return nil
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func matchesQuery(p storage.Prompt, query string) bool {
	return strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Content), query)
}
