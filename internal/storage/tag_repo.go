package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// TagStore defines the interface for tag storage operations.
type TagStore interface {
	// List returns all tags ordered by name.
	List(ctx context.Context) ([]Tag, error)
	// Get returns a tag by id. Returns nil and ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Tag, error)
	// GetByName returns a tag by its full path name. Returns nil and
	// ErrNotFound if absent.
	GetByName(ctx context.Context, name string) (*Tag, error)
	// Insert stores a new tag.
	Insert(ctx context.Context, t *Tag) error
	// Update overwrites an existing tag row.
	Update(ctx context.Context, t *Tag) error
	// Rename overwrites a tag row and rewrites the old path in every
	// prompt's tag set, committing both together. Returns the number of
	// prompts touched. Returns ErrNotFound if the tag row is absent.
	Rename(ctx context.Context, t *Tag, oldName string) (int, error)
	// Delete removes a tag record.
	Delete(ctx context.Context, id string) error
}

// TagRepo provides methods for tag operations.
// It implements the TagStore interface.
type TagRepo struct {
	db *sql.DB
}

// NewTagRepo creates a new TagRepo.
func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// List returns all tags ordered by name.
func (r *TagRepo) List(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color, description FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// Get returns a tag by id. Returns nil and ErrNotFound if absent.
func (r *TagRepo) Get(ctx context.Context, id string) (*Tag, error) {
	return r.getOne(ctx, "SELECT id, name, color, description FROM tags WHERE id = ?", id)
}

// GetByName returns a tag by its full path name.
func (r *TagRepo) GetByName(ctx context.Context, name string) (*Tag, error) {
	return r.getOne(ctx, "SELECT id, name, color, description FROM tags WHERE name = ?", name)
}

func (r *TagRepo) getOne(ctx context.Context, query string, arg any) (*Tag, error) {
	var t Tag
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.Name, &t.Color, &t.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &t, nil
}

// Insert stores a new tag.
func (r *TagRepo) Insert(ctx context.Context, t *Tag) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, color, description) VALUES (?, ?, ?, ?)",
		t.ID, t.Name, t.Color, t.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// Update overwrites an existing tag row.
func (r *TagRepo) Update(ctx context.Context, t *Tag) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, color = ?, description = ? WHERE id = ?",
		t.Name, t.Color, t.Description, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
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

// Rename overwrites a tag row and rewrites the old path in every prompt's
// tag set inside one transaction, so a failure leaves both untouched.
func (r *TagRepo) Rename(ctx context.Context, t *Tag, oldName string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE tags SET name = ?, color = ?, description = ? WHERE id = ?",
		t.Name, t.Color, t.Description, t.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	touched, err := rewriteTagsIn(ctx, tx, oldName, func(tags []string) []string {
		renamed := make([]string, 0, len(tags))
		for _, tag := range tags {
			if tag == oldName {
				tag = t.Name
			}
			renamed = append(renamed, tag)
		}
		return renamed
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit tag rename: %w", err)
	}
	return touched, nil
}

// Delete removes a tag record.
func (r *TagRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
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
