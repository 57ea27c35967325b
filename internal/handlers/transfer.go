package handlers

import (
	"fmt"
	"io"
	"net/http"

	"promptvault/internal/contextutil"
	"promptvault/internal/service"
)

// TransferHandler handles backup export and import.
type TransferHandler struct {
	transfer service.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfer service.TransferService) *TransferHandler {
	return &TransferHandler{transfer: transfer}
}

// Export streams the whole library as a downloadable backup file.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := h.transfer.Export(ctx)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to export library")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import accepts a backup payload (uploaded file contents or pasted text) as
// the raw request body and reports what it produced.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "failed to read import body", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.transfer.Import(ctx, data)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to import library")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
