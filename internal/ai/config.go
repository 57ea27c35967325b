package ai

import "context"

// Provider names accepted by Config.DefaultProvider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// OpenRouterSettings holds connection settings for the hosted OpenRouter backend.
type OpenRouterSettings struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	Timeout int    `json:"timeout"` // milliseconds
	Retries int    `json:"retries"`
}

// OllamaSettings holds connection settings for a locally hosted Ollama backend.
type OllamaSettings struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
	Model    string `json:"model"`
	Timeout  int    `json:"timeout"` // milliseconds
	Retries  int    `json:"retries"`
}

// SystemPrompts holds the per-operation system instructions.
type SystemPrompts struct {
	Generation   string `json:"generation"`
	Optimization string `json:"optimization"`
}

// Temperatures holds the per-operation sampling temperatures.
type Temperatures struct {
	Generation   float64 `json:"generation"`
	Optimization float64 `json:"optimization"`
}

// Config is the persisted gateway configuration. It is saved and loaded
// wholesale; it is not versioned.
type Config struct {
	DefaultProvider string             `json:"defaultProvider"`
	OpenRouter      OpenRouterSettings `json:"openrouter"`
	Ollama          OllamaSettings     `json:"ollama"`
	SystemPrompts   SystemPrompts      `json:"systemPrompts"`
	Temperature     Temperatures       `json:"temperature"`
}

// ConfigSource loads the current gateway configuration. The gateway reads it
// on every call so that settings changes take effect immediately.
type ConfigSource interface {
	LoadAIConfig(ctx context.Context) (Config, error)
}

// DefaultConfig returns the configuration used before the user has saved any
// settings. No provider is selected, so all generation calls fail fast.
func DefaultConfig() Config {
	return Config{
		DefaultProvider: "",
		OpenRouter: OpenRouterSettings{
			Enabled: false,
			APIKey:  "",
			Model:   "openai/gpt-4",
			Timeout: 30000,
			Retries: 3,
		},
		Ollama: OllamaSettings{
			Enabled:  false,
			Endpoint: "http://localhost:11434",
			Model:    "llama2",
			Timeout:  60000,
			Retries:  2,
		},
		SystemPrompts: SystemPrompts{
			Generation:   "You are an AI assistant that helps generate high-quality prompts based on user descriptions. Be clear, specific, and actionable.",
			Optimization: "You are an AI assistant that helps optimize and improve existing prompts for better clarity and effectiveness. Maintain the original intent while improving structure and clarity.",
		},
		Temperature: Temperatures{
			Generation:   0.7,
			Optimization: 0.3,
		},
	}
}
