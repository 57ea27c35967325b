package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"promptvault/internal/handlers"
	"promptvault/internal/service"
	"promptvault/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Prompts  service.PromptService
	Tags     service.TagService
	Transfer service.TransferService
	Gateway  handlers.AIGateway
	Settings storage.SettingsStore
}

// NewRouter creates the HTTP router with all API routes registered.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	promptHandler := handlers.NewPromptHandler(deps.Prompts)
	tagHandler := handlers.NewTagHandler(deps.Tags)
	transferHandler := handlers.NewTransferHandler(deps.Transfer)
	aiHandler := handlers.NewAIHandler(deps.Gateway)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings)
	previewHandler := handlers.NewPreviewHandler(deps.Prompts)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptHandler.List)
			r.Post("/", promptHandler.Create)
			r.Get("/{id}", promptHandler.Get)
			r.Put("/{id}", promptHandler.Update)
			r.Delete("/{id}", promptHandler.Delete)
			r.Post("/{id}/use", promptHandler.Use)
			r.Get("/{id}/versions", promptHandler.Versions)
			r.Post("/{id}/tags", promptHandler.AssignTag)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)
			r.Get("/tree", tagHandler.Tree)
			r.Put("/{id}", tagHandler.Update)
			r.Delete("/{id}", tagHandler.Delete)
		})

		r.Get("/export", transferHandler.Export)
		r.Post("/import", transferHandler.Import)

		r.Route("/ai", func(r chi.Router) {
			r.Post("/generate", aiHandler.Generate)
			r.Post("/optimize", aiHandler.Optimize)
			r.Get("/connection", aiHandler.Connection)
			r.Get("/models", aiHandler.Models)
		})

		r.Get("/settings/ai", settingsHandler.GetAIConfig)
		r.Put("/settings/ai", settingsHandler.PutAIConfig)
	})

	r.Get("/prompts/{id}/preview", previewHandler.ServeHTTP)

	return r
}
