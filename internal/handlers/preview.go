package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"promptvault/internal/contextutil"
	"promptvault/internal/service"
)

// PreviewHandler serves a prompt's content as a rendered HTML page, so
// markdown-formatted prompts can be read outside the JSON API.
type PreviewHandler struct {
	prompts  service.PromptService
	parser   goldmark.Markdown
	template *template.Template
}

// previewPageData holds template data for rendered preview pages.
type previewPageData struct {
	Title       string
	Description string
	Content     template.HTML
}

// NewPreviewHandler creates a new handler for prompt preview pages.
func NewPreviewHandler(prompts service.PromptService) *PreviewHandler {
	tmpl := template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 800px;
      line-height: 1.6;
      color: #1f2933;
    }
    header {
      margin-bottom: 1.5rem;
      border-bottom: 1px solid #d9e2ec;
      padding-bottom: 1rem;
    }
    h1 { margin-top: 0; }
    .description { color: #52606d; }
    article pre {
      background: #f5f7fa;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 8px;
    }
    article code {
      font-family: 'SFMono-Regular', Consolas, Menlo, monospace;
      background: #f5f7fa;
      padding: 2px 4px;
      border-radius: 4px;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    {{if .Description}}<p class="description">{{.Description}}</p>{{end}}
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	parser := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(ghhtml.WithHardWraps()),
	)

	return &PreviewHandler{
		prompts:  prompts,
		parser:   parser,
		template: tmpl,
	}
}

// ServeHTTP renders the prompt's content as HTML.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.Logger(ctx)

	prompt, err := h.prompts.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, ctx, err, "Failed to load prompt")
		return
	}

	var rendered bytes.Buffer
	if err := h.parser.Convert([]byte(prompt.Content), &rendered); err != nil {
		logger.ErrorContext(ctx, "failed to render prompt content", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to render prompt")
		return
	}

	var page bytes.Buffer
	err = h.template.Execute(&page, previewPageData{
		Title:       prompt.Title,
		Description: prompt.Description,
		Content:     template.HTML(rendered.String()),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to render preview page", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}
