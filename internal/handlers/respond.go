package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"promptvault/internal/ai"
	"promptvault/internal/contextutil"
	"promptvault/internal/service"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps service and gateway errors to HTTP statuses. The
// most specific message available is surfaced to the caller.
func respondServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.Logger(ctx)
	logger.ErrorContext(ctx, "request failed", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var providerErr *ai.ProviderError
	if errors.As(err, &providerErr) {
		writeError(w, http.StatusBadGateway, providerErr.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, ai.ErrNoProvider), errors.Is(err, ai.ErrMissingAPIKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Provider request timed out")
	case errors.Is(err, service.ErrExternalService):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
