package providers

import (
	"strings"

	"github.com/leadlens/leadlens/internal/ratelimit"
)

const (
	// DefaultOllamaBaseURL is the default local Ollama daemon address.
	DefaultOllamaBaseURL = "http://localhost:11434"

	// DefaultOllamaModel is used when no model is configured.
	DefaultOllamaModel = "llama3.1"
)

// OllamaProvider implements the Provider interface for a local Ollama
// daemon through its OpenAI-compatible endpoint under /v1. Ollama ignores
// authentication, so no API key is required.
type OllamaProvider struct {
	ChatProvider
}

// NewOllamaProvider creates a new Ollama provider instance. An empty base
// URL falls back to the local daemon default. The configured URL is the
// daemon host; the /v1 suffix is appended when absent.
func NewOllamaProvider(cfg Config, limiter ratelimit.Limiter) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if !strings.HasSuffix(cfg.BaseURL, "/v1") {
		cfg.BaseURL += "/v1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}

	return &OllamaProvider{
		ChatProvider: NewChatProvider(cfg, limiter),
	}
}
