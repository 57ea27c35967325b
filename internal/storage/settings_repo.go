package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"promptvault/internal/ai"
)

const aiConfigKey = "ai-config"

// SettingsStore persists the AI gateway configuration. It implements
// ai.ConfigSource so the gateway always sees the latest saved settings.
type SettingsStore interface {
	LoadAIConfig(ctx context.Context) (ai.Config, error)
	SaveAIConfig(ctx context.Context, cfg ai.Config) error
}

// SettingsRepo provides methods for settings operations.
// It implements the SettingsStore interface.
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// LoadAIConfig returns the persisted AI configuration, or the defaults when
// nothing has been saved yet.
func (r *SettingsRepo) LoadAIConfig(ctx context.Context) (ai.Config, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", aiConfigKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return ai.DefaultConfig(), nil
	}
	if err != nil {
		return ai.Config{}, fmt.Errorf("failed to query settings: %w", err)
	}

	var cfg ai.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return ai.Config{}, fmt.Errorf("failed to decode AI config: %w", err)
	}
	return cfg, nil
}

// SaveAIConfig overwrites the persisted AI configuration wholesale.
func (r *SettingsRepo) SaveAIConfig(ctx context.Context, cfg ai.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode AI config: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		aiConfigKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to save AI config: %w", err)
	}
	return nil
}
