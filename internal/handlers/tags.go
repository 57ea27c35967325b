package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptvault/internal/contextutil"
	"promptvault/internal/service"
	"promptvault/internal/storage"
	"promptvault/internal/tagtree"
)

// TagHandler handles HTTP requests for tag management.
type TagHandler struct {
	tags service.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List returns all registered tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.tags.List(ctx)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []storage.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// Create registers a new tag.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft service.TagDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tag, err := h.tags.Create(ctx, draft)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to create tag")
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// Update edits a tag; a rename rewrites the exact old path on every prompt.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft service.TagDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		contextutil.Logger(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tag, err := h.tags.Update(ctx, chi.URLParam(r, "id"), draft)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to update tag")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// Delete strips the tag from every prompt and removes the record.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.tags.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, ctx, err, "Failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TreeNode is the serialized form of a hierarchy node, children in display
// order.
type TreeNode struct {
	Name        string     `json:"name"`
	FullPath    string     `json:"fullPath"`
	Level       int        `json:"level"`
	Color       string     `json:"color"`
	Description string     `json:"description"`
	DirectCount int        `json:"directCount"`
	Count       int        `json:"count"`
	Children    []TreeNode `json:"children"`
}

// Tree returns the tag hierarchy with usage counts, siblings sorted for
// display.
func (h *TagHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	root, err := h.tags.Tree(ctx)
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to build tag tree")
		return
	}
	writeJSON(w, http.StatusOK, toTreeNode(root))
}

func toTreeNode(node *tagtree.Node) TreeNode {
	out := TreeNode{
		Name:        node.Name,
		FullPath:    node.FullPath,
		Level:       node.Level,
		Color:       node.Color,
		Description: node.Description,
		DirectCount: node.DirectCount,
		Count:       node.Count,
		Children:    []TreeNode{},
	}
	for _, child := range tagtree.SortedChildren(node) {
		out.Children = append(out.Children, toTreeNode(child))
	}
	return out
}
