package providers

import "github.com/leadlens/leadlens/internal/ratelimit"

const (
	// DefaultGroqBaseURL is the default Groq API base URL.
	// Groq exposes an OpenAI-compatible chat completions endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultGroqModel is used when no model is configured.
	DefaultGroqModel = "llama-3.1-8b-instant"
)

// GroqProvider implements the Provider interface for Groq's
// OpenAI-compatible API. It embeds ChatProvider for the shared
// chat-completions wire contract.
type GroqProvider struct {
	ChatProvider
}

// NewGroqProvider creates a new Groq provider instance. Empty base URL and
// model fields fall back to the Groq defaults.
func NewGroqProvider(cfg Config, limiter ratelimit.Limiter) *GroqProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}

	return &GroqProvider{
		ChatProvider: NewChatProvider(cfg, limiter),
	}
}
