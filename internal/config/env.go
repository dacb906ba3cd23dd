package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/leadlens/leadlens/internal/cache"
)

// envConfig holds raw environment values for file-less configuration.
// Provider vendors are discovered by the presence of their credentials.
type envConfig struct {
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	GroqModel    string `env:"GROQ_MODEL"`
	GroqBaseURL  string `env:"GROQ_API_BASE"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL"`
	OpenAIBase   string `env:"OPENAI_BASE_URL"`
	OllamaHost   string `env:"OLLAMA_HOST"`
	OllamaModel  string `env:"OLLAMA_MODEL"`

	Listen         string `env:"LEADLENS_LISTEN"           envDefault:"127.0.0.1:8080"`
	LogLevel       string `env:"LEADLENS_LOG_LEVEL"        envDefault:"info"`
	LogFormat      string `env:"LEADLENS_LOG_FORMAT"       envDefault:"json"`
	CacheMode      string `env:"LEADLENS_CACHE_MODE"       envDefault:"single"`
	CachePath      string `env:"LEADLENS_CACHE_PATH"`
	CacheTTL       int    `env:"LEADLENS_CACHE_TTL"`
	CallsPerMinute int    `env:"LEADLENS_CALLS_PER_MINUTE"`
	CallsPerDay    int    `env:"LEADLENS_CALLS_PER_DAY"`
	DisableCache   string `env:"DISABLE_CACHE"`
}

// FromEnv builds a configuration purely from environment variables.
// It is the fallback when no config file exists: one provider is registered
// per vendor whose credentials are present, in fixed priority order
// (groq, then openai, then ollama).
func FromEnv() (*Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	cfg := &Config{
		Providers: envProviders(raw),
		Quota: QuotaConfig{
			CallsPerMinute: raw.CallsPerMinute,
			CallsPerDay:    raw.CallsPerDay,
		},
		Logging: LoggingConfig{
			Level:  raw.LogLevel,
			Format: raw.LogFormat,
		},
		Server: ServerConfig{
			Listen: raw.Listen,
		},
		Cache: cache.Config{
			Mode:       cache.Mode(raw.CacheMode),
			Ristretto:  cache.DefaultRistrettoConfig(),
			Olric:      cache.DefaultOlricConfig(),
			Sqlite:     cache.DefaultSqliteConfig(),
			TTLSeconds: raw.CacheTTL,
			Disabled:   raw.DisableCache != "",
		},
	}
	if raw.CachePath != "" {
		cfg.Cache.Sqlite.Path = raw.CachePath
	}

	return cfg, nil
}

// envProviders builds the provider list from discovered credentials.
// Model and base URL stay empty unless set; each provider applies its
// own vendor default at construction.
func envProviders(raw envConfig) []ProviderConfig {
	providers := make([]ProviderConfig, 0, 3)

	if raw.GroqAPIKey != "" {
		providers = append(providers, ProviderConfig{
			Name:     "groq",
			Type:     ProviderGroq,
			APIKey:   raw.GroqAPIKey,
			Model:    raw.GroqModel,
			BaseURL:  raw.GroqBaseURL,
			Priority: 0,
			Enabled:  true,
		})
	}

	if raw.OpenAIAPIKey != "" {
		providers = append(providers, ProviderConfig{
			Name:     "openai",
			Type:     ProviderOpenAI,
			APIKey:   raw.OpenAIAPIKey,
			Model:    raw.OpenAIModel,
			BaseURL:  raw.OpenAIBase,
			Priority: 1,
			Enabled:  true,
		})
	}

	if raw.OllamaHost != "" {
		providers = append(providers, ProviderConfig{
			Name:     "ollama",
			Type:     ProviderOllama,
			Model:    raw.OllamaModel,
			BaseURL:  raw.OllamaHost,
			Priority: 2,
			Enabled:  true,
		})
	}

	return providers
}
