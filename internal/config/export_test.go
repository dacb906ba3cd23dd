package config

import (
	"github.com/leadlens/leadlens/internal/cache"
	"github.com/leadlens/leadlens/internal/health"
)

// Test helpers with all fields initialized for exhaustruct compliance.

// MakeTestConfig returns a minimal valid Config with all fields set.
func MakeTestConfig() *Config {
	return &Config{
		Providers: []ProviderConfig{},
		Quota:     MakeTestQuotaConfig(),
		Routing:   MakeTestRoutingConfig(),
		Logging:   MakeTestLoggingConfig(),
		Health:    MakeTestHealthConfig(),
		Server:    MakeTestServerConfig(),
		Cache:     MakeTestCacheConfig(),
	}
}

// MakeTestServerConfig returns a minimal ServerConfig with all fields set.
func MakeTestServerConfig() ServerConfig {
	return ServerConfig{
		Listen:        "127.0.0.1:8080",
		TimeoutMS:     60000,
		MaxConcurrent: 0,
		MaxBodyBytes:  0,
		EnableHTTP2:   false,
	}
}

// MakeTestProviderConfig returns a minimal ProviderConfig with all fields set.
func MakeTestProviderConfig() ProviderConfig {
	return ProviderConfig{
		Name:               "test",
		Type:               "groq",
		APIKey:             "gsk-test",
		Model:              "",
		BaseURL:            "",
		Priority:           0,
		Enabled:            true,
		AWSRegion:          "",
		AWSAccessKeyID:     "",
		AWSSecretAccessKey: "",
	}
}

// MakeTestQuotaConfig returns a minimal QuotaConfig with all fields set.
func MakeTestQuotaConfig() QuotaConfig {
	return QuotaConfig{
		CallsPerMinute: 60,
		CallsPerDay:    14400,
		Strategy:       "",
	}
}

// MakeTestLoggingConfig returns a minimal LoggingConfig with all fields set.
func MakeTestLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
		Pretty: false,
	}
}

// MakeTestRoutingConfig returns a minimal RoutingConfig with all fields set.
func MakeTestRoutingConfig() RoutingConfig {
	return RoutingConfig{
		RetryBackoffMS:   2000,
		RequestTimeoutMS: 0,
	}
}

// MakeTestHealthConfig returns a minimal health.Config with all fields set.
func MakeTestHealthConfig() health.Config {
	return health.Config{
		HealthCheck: health.CheckConfig{
			Enabled:    boolPtr(true),
			IntervalMS: 10000,
		},
		CircuitBreaker: health.CircuitBreakerConfig{
			Enabled:          boolPtr(true),
			OpenDurationMS:   30000,
			FailureThreshold: 5,
			HalfOpenProbes:   3,
		},
	}
}

// MakeTestCacheConfig returns a minimal cache.Config with all fields set.
func MakeTestCacheConfig() cache.Config {
	return cache.Config{
		Mode:       cache.ModeDisabled,
		Olric:      cache.DefaultOlricConfig(),
		Ristretto:  cache.DefaultRistrettoConfig(),
		Sqlite:     cache.DefaultSqliteConfig(),
		TTLSeconds: 0,
		Disabled:   false,
	}
}

// MakeTestValidationError returns a ValidationError with Errors initialized.
func MakeTestValidationError() *ValidationError {
	return &ValidationError{
		Errors: []string{},
	}
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool {
	return &b
}
