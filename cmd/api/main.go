package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"promptvault/internal/ai"
	"promptvault/internal/config"
	"promptvault/internal/http"
	"promptvault/internal/service"
	"promptvault/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	promptRepo := storage.NewPromptRepo(db)
	tagRepo := storage.NewTagRepo(db)
	versionRepo := storage.NewVersionRepo(db)
	settingsRepo := storage.NewSettingsRepo(db)

	// Provider gateway reads its configuration from persisted settings on
	// every call, so saved settings apply immediately.
	gateway := ai.NewGateway(settingsRepo)

	// Create service layer
	promptService := service.NewPrompts(promptRepo, versionRepo, tagRepo)
	tagService := service.NewTags(tagRepo, promptRepo)
	transferService := service.NewTransfer(promptRepo, versionRepo)

	// Create router with dependencies
	deps := &http.Deps{
		Prompts:  promptService,
		Tags:     tagService,
		Transfer: transferService,
		Gateway:  gateway,
		Settings: settingsRepo,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
