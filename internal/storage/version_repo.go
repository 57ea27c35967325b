package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// VersionStore defines the interface for version snapshot storage.
type VersionStore interface {
	// List returns every stored version, grouped by prompt in ascending
	// version order.
	List(ctx context.Context) ([]Version, error)
	// ListByPrompt returns a prompt's versions in ascending version order.
	ListByPrompt(ctx context.Context, promptID string) ([]Version, error)
	// CountByPrompt returns the number of stored versions for a prompt.
	// Version numbering is derived from this count at save time, so it must
	// always reflect the live table, never a cached value.
	CountByPrompt(ctx context.Context, promptID string) (int, error)
	// Insert stores a new version snapshot.
	Insert(ctx context.Context, v *Version) error
	// DeleteByPrompt removes all versions belonging to a prompt.
	DeleteByPrompt(ctx context.Context, promptID string) error
}

// VersionRepo provides methods for version snapshot operations.
// It implements the VersionStore interface.
type VersionRepo struct {
	db *sql.DB
}

// NewVersionRepo creates a new VersionRepo.
func NewVersionRepo(db *sql.DB) *VersionRepo {
	return &VersionRepo{db: db}
}

// List returns every stored version, grouped by prompt in ascending version
// order.
func (r *VersionRepo) List(ctx context.Context) ([]Version, error) {
	return r.query(ctx,
		"SELECT id, prompt_id, title, description, content, timestamp, version_number FROM versions ORDER BY prompt_id, version_number",
	)
}

// ListByPrompt returns a prompt's versions in ascending version order.
func (r *VersionRepo) ListByPrompt(ctx context.Context, promptID string) ([]Version, error) {
	return r.query(ctx,
		"SELECT id, prompt_id, title, description, content, timestamp, version_number FROM versions WHERE prompt_id = ? ORDER BY version_number",
		promptID,
	)
}

func (r *VersionRepo) query(ctx context.Context, query string, args ...any) ([]Version, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.PromptID, &v.Title, &v.Description, &v.Content, &v.Timestamp, &v.VersionNumber); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate versions: %w", err)
	}
	return versions, nil
}

// CountByPrompt returns the number of stored versions for a prompt.
func (r *VersionRepo) CountByPrompt(ctx context.Context, promptID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM versions WHERE prompt_id = ?", promptID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}
	return count, nil
}

// Insert stores a new version snapshot.
func (r *VersionRepo) Insert(ctx context.Context, v *Version) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO versions (id, prompt_id, title, description, content, timestamp, version_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.PromptID, v.Title, v.Description, v.Content, v.Timestamp, v.VersionNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

// DeleteByPrompt removes all versions belonging to a prompt.
func (r *VersionRepo) DeleteByPrompt(ctx context.Context, promptID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM versions WHERE prompt_id = ?", promptID); err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}
	return nil
}
