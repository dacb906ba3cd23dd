package providers

import "github.com/leadlens/leadlens/internal/ratelimit"

const (
	// DefaultOpenAIBaseURL is the default OpenAI API base URL.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIProvider implements the Provider interface for the OpenAI API.
// It embeds ChatProvider for the shared chat-completions wire contract.
type OpenAIProvider struct {
	ChatProvider
}

// NewOpenAIProvider creates a new OpenAI provider instance. Empty base URL
// and model fields fall back to the OpenAI defaults.
func NewOpenAIProvider(cfg Config, limiter ratelimit.Limiter) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		ChatProvider: NewChatProvider(cfg, limiter),
	}
}
