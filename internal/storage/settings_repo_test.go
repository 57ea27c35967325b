package storage

import (
	"context"
	"testing"

	"promptvault/internal/ai"
)

func TestSettingsRepo_LoadAIConfig_DefaultsWhenUnset(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepo(db)

	cfg, err := repo.LoadAIConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadAIConfig() error = %v", err)
	}
	if cfg.DefaultProvider != "" {
		t.Errorf("DefaultProvider = %q, want empty before any save", cfg.DefaultProvider)
	}
	if cfg.OpenRouter.Model != "openai/gpt-4" || cfg.OpenRouter.Timeout != 30000 {
		t.Errorf("OpenRouter defaults = %+v", cfg.OpenRouter)
	}
	if cfg.Ollama.Endpoint != "http://localhost:11434" || cfg.Ollama.Retries != 2 {
		t.Errorf("Ollama defaults = %+v", cfg.Ollama)
	}
	if cfg.Temperature.Generation != 0.7 || cfg.Temperature.Optimization != 0.3 {
		t.Errorf("Temperature defaults = %+v", cfg.Temperature)
	}
}

func TestSettingsRepo_SaveAndLoadRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepo(db)

	cfg := ai.DefaultConfig()
	cfg.DefaultProvider = ai.ProviderOllama
	cfg.Ollama.Endpoint = "http://box:11434"
	cfg.Ollama.Model = "mistral:7b"

	if err := repo.SaveAIConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SaveAIConfig() error = %v", err)
	}

	got, err := repo.LoadAIConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadAIConfig() error = %v", err)
	}
	if got.DefaultProvider != ai.ProviderOllama || got.Ollama.Endpoint != "http://box:11434" || got.Ollama.Model != "mistral:7b" {
		t.Errorf("LoadAIConfig() = %+v, want the saved settings back", got)
	}
}

func TestSettingsRepo_SaveOverwrites(t *testing.T) {
	db := testDB(t)
	repo := NewSettingsRepo(db)

	first := ai.DefaultConfig()
	first.DefaultProvider = ai.ProviderOpenRouter
	if err := repo.SaveAIConfig(context.Background(), first); err != nil {
		t.Fatalf("SaveAIConfig() error = %v", err)
	}

	second := ai.DefaultConfig()
	second.DefaultProvider = ai.ProviderOllama
	if err := repo.SaveAIConfig(context.Background(), second); err != nil {
		t.Fatalf("second SaveAIConfig() error = %v", err)
	}

	got, err := repo.LoadAIConfig(context.Background())
	if err != nil {
		t.Fatalf("LoadAIConfig() error = %v", err)
	}
	if got.DefaultProvider != ai.ProviderOllama {
		t.Errorf("DefaultProvider = %q, want the most recent save to win", got.DefaultProvider)
	}
}
