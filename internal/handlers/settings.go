package handlers

import (
	"encoding/json"
	"net/http"

	"promptvault/internal/ai"
	"promptvault/internal/contextutil"
	"promptvault/internal/storage"
)

// SettingsHandler reads and writes the persisted AI gateway configuration.
type SettingsHandler struct {
	settings storage.SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings storage.SettingsStore) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetAIConfig returns the current configuration, defaults included when
// nothing was saved yet.
func (h *SettingsHandler) GetAIConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := h.settings.LoadAIConfig(ctx)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutAIConfig overwrites the configuration wholesale.
func (h *SettingsHandler) PutAIConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cfg ai.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch cfg.DefaultProvider {
	case "", ai.ProviderOpenRouter, ai.ProviderOllama:
	default:
		writeError(w, http.StatusBadRequest, "Unknown default provider")
		return
	}

	if err := h.settings.SaveAIConfig(ctx, cfg); err != nil {
		respondServiceError(w, ctx, err, "Failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
