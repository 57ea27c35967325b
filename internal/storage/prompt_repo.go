package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_prompt_store.go -package=mocks promptvault/internal/storage PromptStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// PromptStore defines the interface for prompt storage operations.
type PromptStore interface {
	// List returns all prompts ordered by modification time, newest first.
	List(ctx context.Context) ([]Prompt, error)
	// Get returns a prompt by id. Returns nil and ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Prompt, error)
	// Insert stores a new prompt.
	Insert(ctx context.Context, p *Prompt) error
	// Update overwrites an existing prompt row.
	Update(ctx context.Context, p *Prompt) error
	// Delete removes a prompt. Versions cascade at the schema level.
	Delete(ctx context.Context, id string) error
	// IncrementUsage bumps a prompt's usage counter by one.
	IncrementUsage(ctx context.Context, id string) error
	// RemoveTag strips an exact tag path from every prompt referencing it
	// and reports how many prompts were touched.
	RemoveTag(ctx context.Context, path string) (int, error)
}

// PromptRepo provides methods for prompt operations.
// It implements the PromptStore interface.
type PromptRepo struct {
	db *sql.DB
}

// NewPromptRepo creates a new PromptRepo.
func NewPromptRepo(db *sql.DB) *PromptRepo {
	return &PromptRepo{db: db}
}

// List returns all prompts ordered by modification time, newest first.
func (r *PromptRepo) List(ctx context.Context) ([]Prompt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, description, content, tags, created_at, modified_at, usage_count FROM prompts ORDER BY modified_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var prompts []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	return prompts, nil
}

// Get returns a prompt by id. Returns nil and ErrNotFound if absent.
func (r *PromptRepo) Get(ctx context.Context, id string) (*Prompt, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, title, description, content, tags, created_at, modified_at, usage_count FROM prompts WHERE id = ?",
		id,
	)
	p, err := scanPrompt(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Insert stores a new prompt.
func (r *PromptRepo) Insert(ctx context.Context, p *Prompt) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO prompts (id, title, description, content, tags, created_at, modified_at, usage_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Content, tags, p.CreatedAt, p.ModifiedAt, p.UsageCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}
	return nil
}

// Update overwrites an existing prompt row.
func (r *PromptRepo) Update(ctx context.Context, p *Prompt) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE prompts SET title = ?, description = ?, content = ?, tags = ?, created_at = ?, modified_at = ?, usage_count = ?
		 WHERE id = ?`,
		p.Title, p.Description, p.Content, tags, p.CreatedAt, p.ModifiedAt, p.UsageCount, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a prompt. Versions cascade at the schema level.
func (r *PromptRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM prompts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps a prompt's usage counter by one. The modification
// timestamp is deliberately left alone; copying a prompt is not an edit.
func (r *PromptRepo) IncrementUsage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE prompts SET usage_count = usage_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveTag strips an exact tag path from every prompt referencing it.
// This is an exact-path rewrite, never a subtree edit: a prompt tagged
// "x/y/q" is untouched by RemoveTag("x/y").
func (r *PromptRepo) RemoveTag(ctx context.Context, path string) (int, error) {
	return r.rewriteTags(ctx, path, func(tags []string) []string {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t == path {
				continue
			}
			out = append(out, t)
		}
		return out
	})
}

// rewriteTags applies fn to the tag set of every prompt whose tags contain
// the exact path, inside one transaction.
func (r *PromptRepo) rewriteTags(ctx context.Context, path string, fn func([]string) []string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	touched, err := rewriteTagsIn(ctx, tx, path, fn)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tag rewrite: %w", err)
	}
	return touched, nil
}

// rewriteTagsIn is the transaction body of rewriteTags, shared with
// TagRepo.Rename so a record rename and its prompt rewrites commit together.
func rewriteTagsIn(ctx context.Context, tx *sql.Tx, path string, fn func([]string) []string) (int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, tags FROM prompts")
	if err != nil {
		return 0, fmt.Errorf("failed to query prompt tags: %w", err)
	}

	type pending struct {
		id   string
		tags []string
	}
	var updates []pending
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("failed to scan prompt tags: %w", err)
		}
		tags, err := decodeTags(raw)
		if err != nil {
			_ = rows.Close()
			return 0, err
		}
		if !containsTag(tags, path) {
			continue
		}
		updates = append(updates, pending{id: id, tags: fn(tags)})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("failed to iterate prompts: %w", err)
	}
	_ = rows.Close()

	for _, u := range updates {
		encoded, err := encodeTags(u.tags)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE prompts SET tags = ? WHERE id = ?", encoded, u.id); err != nil {
			return 0, fmt.Errorf("failed to rewrite tags: %w", err)
		}
	}

	return len(updates), nil
}

func containsTag(tags []string, path string) bool {
	for _, t := range tags {
		if t == path {
			return true
		}
	}
	return false
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPrompt(s scanner) (*Prompt, error) {
	var p Prompt
	var rawTags string
	err := s.Scan(&p.ID, &p.Title, &p.Description, &p.Content, &rawTags, &p.CreatedAt, &p.ModifiedAt, &p.UsageCount)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan prompt: %w", err)
	}
	p.Tags, err = decodeTags(rawTags)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
