package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptvault/internal/contextutil"
	"promptvault/internal/service"
	"promptvault/internal/storage"
)

// PromptHandler handles HTTP requests for prompt lifecycle operations.
type PromptHandler struct {
	prompts service.PromptService
}

// NewPromptHandler creates a new PromptHandler.
func NewPromptHandler(prompts service.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

// List returns prompts, optionally narrowed by ?tag= (exact path) and
// ?q= (case-insensitive text search).
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := service.ListFilter{
		Tag:   r.URL.Query().Get("tag"),
		Query: r.URL.Query().Get("q"),
	}

	prompts, err := h.prompts.List(ctx, filter)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to list prompts")
		return
	}
	if prompts == nil {
		prompts = []storage.Prompt{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

// Create saves a new prompt.
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft service.PromptDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft.ID = ""

	prompt, err := h.prompts.Save(ctx, draft)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to save prompt")
		return
	}
	writeJSON(w, http.StatusCreated, prompt)
}

// Get returns one prompt.
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prompt, err := h.prompts.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to load prompt")
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// Update edits an existing prompt in place, capturing version history when
// content, title or description changed.
func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.prompts.Get(ctx, id); err != nil {
		respondServiceError(w, ctx, err, "Failed to load prompt")
		return
	}

	var draft service.PromptDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft.ID = id

	prompt, err := h.prompts.Save(ctx, draft)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to save prompt")
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// Delete removes a prompt and its version history.
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.prompts.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, ctx, err, "Failed to delete prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Use records one use/copy of a prompt.
func (h *PromptHandler) Use(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prompt, err := h.prompts.Use(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to record usage")
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// Versions returns a prompt's history, oldest first.
func (h *PromptHandler) Versions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	versions, err := h.prompts.Versions(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to list versions")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// assignTagRequest is the body for tag assignment.
type assignTagRequest struct {
	Tag string `json:"tag"`
}

// assignTagResponse reports the assignment outcome. Added is false when the
// prompt already carried the tag.
type assignTagResponse struct {
	Prompt any  `json:"prompt"`
	Added  bool `json:"added"`
}

// AssignTag adds a tag path to a prompt (the drag-to-tag action).
func (h *PromptHandler) AssignTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assignTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.prompts.AssignTag(ctx, chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to assign tag")
		return
	}
	writeJSON(w, http.StatusOK, assignTagResponse{Prompt: result.Prompt, Added: result.Added})
}
