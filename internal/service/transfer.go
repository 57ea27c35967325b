package service

import (
	"context"
	"log/slog"
	"time"

	"promptvault/internal/portable"
	"promptvault/internal/storage"
)

// ImportResult reports what an import produced.
type ImportResult struct {
	Prompts  int `json:"prompts"`
	Versions int `json:"versions"`
}

// TransferService moves the library in and out of the portable backup format.
type TransferService interface {
	// Export renders the whole library as a backup file. The returned name
	// follows the dated prompts-export-<date>.json pattern.
	Export(ctx context.Context) (data []byte, filename string, err error)
	// Import parses a backup payload and adds its prompts and versions to
	// the library. Nothing is written when the payload does not parse.
	Import(ctx context.Context, data []byte) (ImportResult, error)
}

// Transfer implements TransferService over the storage repositories.
type Transfer struct {
	prompts  storage.PromptStore
	versions storage.VersionStore
	logger   *slog.Logger

	// NewID and Now are substitutable in tests for determinism.
	NewID func() string
	Now   func() time.Time
}

// NewTransfer creates the transfer service.
func NewTransfer(prompts storage.PromptStore, versions storage.VersionStore) *Transfer {
	return &Transfer{
		prompts:  prompts,
		versions: versions,
		logger:   slog.Default(),
		NewID:    NewID,
		Now:      time.Now,
	}
}

// Export renders the whole library as a pretty-printed backup file.
func (s *Transfer) Export(ctx context.Context) ([]byte, string, error) {
	prompts, err := s.prompts.List(ctx)
	if err != nil {
		return nil, "", WrapError(err, "failed to list prompts")
	}
	versions, err := s.versions.List(ctx)
	if err != nil {
		return nil, "", WrapError(err, "failed to list versions")
	}

	records := portable.Export(prompts, versions)
	data, err := portable.Marshal(records)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "library exported", "records", len(records))
	return data, portable.Filename(s.Now()), nil
}

// Import parses a backup payload and persists the prompts and versions it
// contains. Parse failures reject the whole payload before any write.
func (s *Transfer) Import(ctx context.Context, data []byte) (ImportResult, error) {
	prompts, versions, err := portable.Import(data, s.NewID)
	if err != nil {
		return ImportResult{}, &ValidationError{Field: "import", Message: err.Error()}
	}

	for i := range prompts {
		if err := s.prompts.Insert(ctx, &prompts[i]); err != nil {
			return ImportResult{}, WrapError(err, "failed to store imported prompt")
		}
	}
	for i := range versions {
		if err := s.versions.Insert(ctx, &versions[i]); err != nil {
			return ImportResult{}, WrapError(err, "failed to store imported version")
		}
	}

	s.logger.InfoContext(ctx, "library imported", "prompts", len(prompts), "versions", len(versions))
	return ImportResult{Prompts: len(prompts), Versions: len(versions)}, nil
}
