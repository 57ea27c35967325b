package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// maxTokens caps the completion length on the hosted provider.
const maxTokens = 2000

// retryDelay is the fixed pause between retry attempts on transport failures.
const retryDelay = 500 * time.Millisecond

var (
	// ErrNoProvider is returned when no default provider is selected.
	ErrNoProvider = errors.New("no AI provider configured")
	// ErrMissingAPIKey is returned when the OpenRouter provider is selected
	// without an API key.
	ErrMissingAPIKey = errors.New("OpenRouter API key not configured")
	// ErrUnknownProvider is returned for a provider name outside the known set.
	ErrUnknownProvider = errors.New("unknown AI provider")
)

// ProviderError carries the most specific message a backend returned for a
// failed request. Message may be empty, in which case a generic status-based
// message is rendered.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Provider == ProviderOllama {
		return fmt.Sprintf("Ollama error: %d", e.Status)
	}
	return fmt.Sprintf("API error: %d", e.Status)
}

// Model describes one model offered by a provider.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Gateway is a uniform call surface over the two interchangeable
// text-generation backends. Configuration is re-read from the source on every
// call so saved settings apply immediately.
type Gateway struct {
	source ConfigSource
	client *http.Client

	// OpenRouterBaseURL can be overridden in tests to point at a local server.
	OpenRouterBaseURL string
}

// NewGateway creates a gateway backed by the given configuration source.
func NewGateway(source ConfigSource) *Gateway {
	return &Gateway{
		source:            source,
		client:            http.DefaultClient,
		OpenRouterBaseURL: defaultOpenRouterBaseURL,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate produces prompt text from a free-form description using the
// configured default provider.
func (g *Gateway) Generate(ctx context.Context, description string) (string, error) {
	cfg, err := g.source.LoadAIConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load AI config: %w", err)
	}
	return g.complete(ctx, cfg, cfg.SystemPrompts.Generation, description, cfg.Temperature.Generation)
}

// Optimize rewrites existing prompt text for clarity using the configured
// default provider.
func (g *Gateway) Optimize(ctx context.Context, promptText string) (string, error) {
	cfg, err := g.source.LoadAIConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load AI config: %w", err)
	}
	return g.complete(ctx, cfg, cfg.SystemPrompts.Optimization, promptText, cfg.Temperature.Optimization)
}

// complete routes one system+user exchange to the selected backend. All
// configuration preconditions are checked before any network I/O.
func (g *Gateway) complete(ctx context.Context, cfg Config, systemPrompt, userMessage string, temperature float64) (string, error) {
	switch cfg.DefaultProvider {
	case ProviderOpenRouter:
		return g.callOpenRouter(ctx, cfg, systemPrompt, userMessage, temperature)
	case ProviderOllama:
		return g.callOllama(ctx, cfg, systemPrompt, userMessage, temperature)
	case "":
		return "", ErrNoProvider
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.DefaultProvider)
	}
}

func (g *Gateway) callOpenRouter(ctx context.Context, cfg Config, systemPrompt, userMessage string, temperature float64) (string, error) {
	settings := cfg.OpenRouter
	if settings.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	payload := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{
		Model: settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := timeoutContext(ctx, settings.Timeout)
	defer cancel()

	respBody, err := g.doWithRetry(ctx, settings.Retries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+settings.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, decodeOpenRouterError)
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (g *Gateway) callOllama(ctx context.Context, cfg Config, systemPrompt, userMessage string, temperature float64) (string, error) {
	settings := cfg.Ollama

	payload := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
		Stream   bool          `json:"stream"`
		Options  struct {
			Temperature float64 `json:"temperature"`
		} `json:"options"`
	}{
		Model: settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Stream: false,
	}
	payload.Options.Temperature = temperature

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := timeoutContext(ctx, settings.Timeout)
	defer cancel()

	respBody, err := g.doWithRetry(ctx, settings.Retries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.Endpoint+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, func(status int, _ []byte) *ProviderError {
		return &ProviderError{Provider: ProviderOllama, Status: status}
	})
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Message chatMessage `json:"message"`
	}
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// doWithRetry executes one HTTP exchange, retrying transport-level failures
// only. Non-success statuses and context expiry are never retried; the
// timeout context bounds all attempts together.
func (g *Gateway) doWithRetry(ctx context.Context, retries int, build func() (*http.Request, error), decodeErr func(status int, body []byte) *ProviderError) ([]byte, error) {
	attempts := uint(retries + 1)
	if attempts < 1 {
		attempts = 1
	}

	var respBody []byte
	err := retry.Do(
		func() error {
			req, err := build()
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			resp, err := g.client.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("request timed out: %w", ctx.Err())
				}
				return fmt.Errorf("request failed: %w", err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			raw, err := readBody(resp)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return decodeErr(resp.StatusCode, raw)
			}
			respBody = raw
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var provErr *ProviderError
			return !errors.As(err, &provErr) && ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

func decodeOpenRouterError(status int, body []byte) *ProviderError {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	provErr := &ProviderError{Provider: ProviderOpenRouter, Status: status}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		provErr.Message = apiErr.Error.Message
	}
	return provErr
}

func readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return raw, nil
}

func timeoutContext(ctx context.Context, timeoutMillis int) (context.Context, context.CancelFunc) {
	if timeoutMillis <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutMillis)*time.Millisecond)
}
