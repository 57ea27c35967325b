package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TestConnection reports whether the named provider's listing endpoint is
// reachable. All transport errors collapse to false.
func (g *Gateway) TestConnection(ctx context.Context, provider string) bool {
	cfg, err := g.source.LoadAIConfig(ctx)
	if err != nil {
		return false
	}

	var req *http.Request
	switch provider {
	case ProviderOpenRouter:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, g.OpenRouterBaseURL+"/models", nil)
		if err == nil && cfg.OpenRouter.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.OpenRouter.APIKey)
		}
	case ProviderOllama:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, cfg.Ollama.Endpoint+"/api/tags", nil)
	default:
		return false
	}
	if err != nil {
		return false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the models the named provider advertises on its listing
// endpoint.
func (g *Gateway) ListModels(ctx context.Context, provider string) ([]Model, error) {
	cfg, err := g.source.LoadAIConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AI config: %w", err)
	}

	switch provider {
	case ProviderOpenRouter:
		return g.listOpenRouterModels(ctx, cfg)
	case ProviderOllama:
		return g.listOllamaModels(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

func (g *Gateway) listOpenRouterModels(ctx context.Context, cfg Config) ([]Model, error) {
	if cfg.OpenRouter.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.OpenRouterBaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.OpenRouter.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeOpenRouterError(resp.StatusCode, raw)
	}

	var listing struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	models := make([]Model, 0, len(listing.Data))
	for _, m := range listing.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, Model{ID: m.ID, Name: name})
	}
	return models, nil
}

func (g *Gateway) listOllamaModels(ctx context.Context, cfg Config) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Ollama.Endpoint+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: ProviderOllama, Status: resp.StatusCode}
	}

	var listing struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	models := make([]Model, 0, len(listing.Models))
	for _, m := range listing.Models {
		models = append(models, Model{ID: m.Name, Name: m.Name})
	}
	return models, nil
}
