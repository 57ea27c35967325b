package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ai_gateway.go -package=mocks promptvault/internal/handlers AIGateway

import (
	"context"
	"encoding/json"
	"net/http"

	"promptvault/internal/ai"
	"promptvault/internal/contextutil"
)

// AIGateway is the call surface the AI endpoints need from the provider
// gateway. Defined here, consumer-first, so it can be mocked in tests.
type AIGateway interface {
	Generate(ctx context.Context, description string) (string, error)
	Optimize(ctx context.Context, promptText string) (string, error)
	TestConnection(ctx context.Context, provider string) bool
	ListModels(ctx context.Context, provider string) ([]ai.Model, error)
}

// AIHandler handles HTTP requests for prompt generation and optimization.
type AIHandler struct {
	gateway AIGateway
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(gateway AIGateway) *AIHandler {
	return &AIHandler{gateway: gateway}
}

type generateRequest struct {
	Description string `json:"description"`
}

type optimizeRequest struct {
	Content string `json:"content"`
}

type textResponse struct {
	Content string `json:"content"`
}

// Generate produces prompt text from a free-form description.
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "Description cannot be empty")
		return
	}

	content, err := h.gateway.Generate(ctx, req.Description)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to generate prompt")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Content: content})
}

// Optimize rewrites existing prompt text for clarity.
func (h *AIHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Content cannot be empty")
		return
	}

	content, err := h.gateway.Optimize(ctx, req.Content)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to optimize prompt")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Content: content})
}

type connectionResponse struct {
	Provider  string `json:"provider"`
	Reachable bool   `json:"reachable"`
}

// Connection reports provider reachability. Transport failures read as
// unreachable, never as request errors.
func (h *AIHandler) Connection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeError(w, http.StatusBadRequest, "Provider is required")
		return
	}
	writeJSON(w, http.StatusOK, connectionResponse{
		Provider:  provider,
		Reachable: h.gateway.TestConnection(ctx, provider),
	})
}

type modelsResponse struct {
	Models []ai.Model `json:"models"`
}

// Models lists the models the named provider advertises.
func (h *AIHandler) Models(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeError(w, http.StatusBadRequest, "Provider is required")
		return
	}

	models, err := h.gateway.ListModels(ctx, provider)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to list models")
		return
	}
	if models == nil {
		models = []ai.Model{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}
