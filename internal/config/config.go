// Package config provides configuration loading and parsing for leadlens.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leadlens/leadlens/internal/cache"
	"github.com/leadlens/leadlens/internal/health"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Configuration errors.
var (
	ErrAPIKeyRequired = errors.New("config: api_key is required")
)

// RuntimeConfig defines the interface for accessing runtime configuration that supports hot-reload.
// Components that need to observe config changes should use this interface instead of
// holding a direct *Config pointer, which would become stale after hot-reload.
//
// Usage pattern:
//
//	func (c *ResponseCache) disabled() bool {
//		cfg := c.runtime.Get()
//		return cfg.Cache.Disabled
//	}
type RuntimeConfig interface {
	Get() *Config
}

// InvalidPriorityError is returned when a provider priority is negative.
type InvalidPriorityError struct {
	Priority int
}

func (e InvalidPriorityError) Error() string {
	return fmt.Sprintf("config: priority must be >= 0, got %d", e.Priority)
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Quota defaults match the Groq free tier.
const (
	DefaultCallsPerMinute = 60
	DefaultCallsPerDay    = 14400
)

// DefaultRetryBackoff is the pause after a rate-limited provider before
// trying the next one.
const DefaultRetryBackoff = 2 * time.Second

// Config represents the complete leadlens configuration.
type Config struct {
	Providers []ProviderConfig `yaml:"providers" toml:"providers"`
	Quota     QuotaConfig      `yaml:"quota" toml:"quota"`
	Routing   RoutingConfig    `yaml:"routing" toml:"routing"`
	Logging   LoggingConfig    `yaml:"logging" toml:"logging"`
	Health    health.Config    `yaml:"health" toml:"health"`
	Server    ServerConfig     `yaml:"server" toml:"server"`
	Cache     cache.Config     `yaml:"cache" toml:"cache"`
}

// EnabledProviders returns the providers with Enabled set, in declaration order.
func (c *Config) EnabledProviders() []ProviderConfig {
	return lo.Filter(c.Providers, func(p ProviderConfig, _ int) bool {
		return p.Enabled
	})
}

// QuotaConfig defines the admission limits applied before any provider call.
// Zero values fall back to the free-tier defaults.
type QuotaConfig struct {
	// CallsPerMinute caps calls over a trailing 60 second window.
	CallsPerMinute int `yaml:"calls_per_minute" toml:"calls_per_minute"`

	// CallsPerDay caps calls per calendar day.
	CallsPerDay int `yaml:"calls_per_day" toml:"calls_per_day"`

	// Strategy selects the limiter algorithm.
	// Options: sliding_window (default), token_bucket
	Strategy string `yaml:"strategy" toml:"strategy"`
}

// GetCallsPerMinute returns the per-minute cap with default fallback.
func (q *QuotaConfig) GetCallsPerMinute() int {
	if q.CallsPerMinute <= 0 {
		return DefaultCallsPerMinute
	}
	return q.CallsPerMinute
}

// GetCallsPerDay returns the daily cap with default fallback.
func (q *QuotaConfig) GetCallsPerDay() int {
	if q.CallsPerDay <= 0 {
		return DefaultCallsPerDay
	}
	return q.CallsPerDay
}

// GetEffectiveStrategy returns the limiter strategy with default fallback.
// Returns "sliding_window" if Strategy is empty string.
func (q *QuotaConfig) GetEffectiveStrategy() string {
	if q.Strategy == "" {
		return "sliding_window"
	}
	return q.Strategy
}

// RoutingConfig defines failover behavior across providers.
type RoutingConfig struct {
	// RetryBackoffMS is how long the router pauses after a provider reports
	// rate limiting before moving on to the next provider.
	// Default: 2000ms (2 seconds)
	RetryBackoffMS int `yaml:"retry_backoff_ms" toml:"retry_backoff_ms"`

	// RequestTimeoutMS bounds a single provider call.
	// Default: 60000ms (60 seconds)
	RequestTimeoutMS int `yaml:"request_timeout_ms" toml:"request_timeout_ms"`
}

// GetRetryBackoff returns the rate-limit backoff with default fallback.
func (r *RoutingConfig) GetRetryBackoff() time.Duration {
	if r.RetryBackoffMS <= 0 {
		return DefaultRetryBackoff
	}
	return time.Duration(r.RetryBackoffMS) * time.Millisecond
}

// GetRequestTimeoutOption returns the per-call timeout as a duration Option.
// Returns None if RequestTimeoutMS is zero or negative.
func (r *RoutingConfig) GetRequestTimeoutOption() mo.Option[time.Duration] {
	if r.RequestTimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(r.RequestTimeoutMS) * time.Millisecond)
}

// ServerConfig defines server-level settings.
type ServerConfig struct {
	Listen        string `yaml:"listen" toml:"listen"`
	TimeoutMS     int    `yaml:"timeout_ms" toml:"timeout_ms"`
	MaxConcurrent int    `yaml:"max_concurrent" toml:"max_concurrent"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
	EnableHTTP2   bool   `yaml:"enable_http2" toml:"enable_http2"` // Enable HTTP/2 cleartext (h2c) support
}

// ProviderConfig defines configuration for a backend LLM provider.
//
//nolint:govet // Field order optimized for readability, not memory alignment
type ProviderConfig struct {
	Name     string `yaml:"name" toml:"name"`
	Type     string `yaml:"type" toml:"type"`       // groq, openai, ollama, bedrock
	APIKey   string `yaml:"api_key" toml:"api_key"` // API key value (supports ${ENV_VAR})
	Model    string `yaml:"model" toml:"model"`
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	Priority int    `yaml:"priority" toml:"priority"` // Lower is tried first (0 = primary)
	Enabled  bool   `yaml:"enabled" toml:"enabled"`

	// Cloud provider fields (used when Type is bedrock)

	// AWSRegion is the AWS region for Bedrock (e.g., "us-east-1", "us-west-2").
	// Required when Type is "bedrock".
	AWSRegion string `yaml:"aws_region" toml:"aws_region"`

	// AWSAccessKeyID and AWSSecretAccessKey for explicit credentials.
	// If empty, uses AWS SDK default credential chain (env vars, IAM role, etc.).
	AWSAccessKeyID     string `yaml:"aws_access_key_id" toml:"aws_access_key_id"`
	AWSSecretAccessKey string `yaml:"aws_secret_access_key" toml:"aws_secret_access_key"`
}

// GetModelOption returns the configured model as an Option.
// Returns None if Model is empty (provider picks its default).
func (p *ProviderConfig) GetModelOption() mo.Option[string] {
	if p.Model == "" {
		return mo.None[string]()
	}
	return mo.Some(p.Model)
}

// Validate checks ProviderConfig for errors.
func (p *ProviderConfig) Validate() error {
	if requiresAPIKey(p.Type) && p.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if p.Priority < 0 {
		return InvalidPriorityError{Priority: p.Priority}
	}
	return nil
}

// ValidateCloudConfig validates cloud provider-specific configuration.
func (p *ProviderConfig) ValidateCloudConfig() error {
	if p.Type == ProviderBedrock && p.AWSRegion == "" {
		return errors.New("config: aws_region required for bedrock provider")
	}
	return nil
}

// requiresAPIKey reports whether a provider type authenticates with an API key.
// Ollama is a local daemon; Bedrock signs requests with AWS credentials.
func requiresAPIKey(providerType string) bool {
	switch providerType {
	case ProviderGroq, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ServerConfig Option helpers for type-safe access to optional configuration values.
// These methods expose configuration fields as mo.Option[T] for composable handling.

// GetTimeoutOption returns the timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// GetMaxConcurrentOption returns the max concurrent setting as an Option.
// Returns None if MaxConcurrent is zero (unlimited).
func (s *ServerConfig) GetMaxConcurrentOption() mo.Option[int] {
	if s.MaxConcurrent <= 0 {
		return mo.None[int]()
	}
	return mo.Some(s.MaxConcurrent)
}

// GetMaxBodyBytesOption returns the request body cap as an Option.
// Returns None if MaxBodyBytes is zero (unlimited).
func (s *ServerConfig) GetMaxBodyBytesOption() mo.Option[int64] {
	if s.MaxBodyBytes <= 0 {
		return mo.None[int64]()
	}
	return mo.Some(s.MaxBodyBytes)
}
