package health

import "time"

// Default configuration values.
const (
	DefaultFailureThreshold = 5     // consecutive failures to open circuit
	DefaultOpenDurationMS   = 30000 // 30 seconds before half-open
	DefaultHalfOpenProbes   = 3     // probes allowed in half-open state
	DefaultHealthCheckMS    = 10000 // 10 seconds between recovery probes
	DefaultHealthEnabled    = true  // recovery probing enabled by default
)

// CircuitBreakerConfig defines per-provider circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled turns circuit breaking on or off. Default: true.
	// When disabled the router treats every provider as healthy.
	Enabled *bool `yaml:"enabled" toml:"enabled"`

	// FailureThreshold is the number of consecutive failures before opening the circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold" toml:"failure_threshold"`

	// OpenDurationMS is the duration in milliseconds the circuit stays open before
	// transitioning to half-open state. Default: 30000 (30 seconds)
	OpenDurationMS int `yaml:"open_duration_ms" toml:"open_duration_ms"`

	// HalfOpenProbes is the number of probe requests allowed in half-open state.
	// If all probes succeed, circuit closes. If any fails, circuit reopens.
	// Default: 3
	HalfOpenProbes int `yaml:"half_open_probes" toml:"half_open_probes"`
}

// IsEnabled returns whether circuit breaking is enabled.
// Returns true by default if not explicitly set.
func (c *CircuitBreakerConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// GetFailureThreshold returns the configured failure threshold or default 5.
func (c *CircuitBreakerConfig) GetFailureThreshold() uint32 {
	if c.FailureThreshold <= 0 {
		return DefaultFailureThreshold
	}
	return uint32(c.FailureThreshold) //nolint:gosec // checked positive above
}

// GetOpenDuration returns the open duration as time.Duration.
// Returns default 30s if not set or negative.
func (c *CircuitBreakerConfig) GetOpenDuration() time.Duration {
	if c.OpenDurationMS <= 0 {
		return time.Duration(DefaultOpenDurationMS) * time.Millisecond
	}
	return time.Duration(c.OpenDurationMS) * time.Millisecond
}

// GetHalfOpenProbes returns the configured half-open probe count or default 3.
func (c *CircuitBreakerConfig) GetHalfOpenProbes() uint32 {
	if c.HalfOpenProbes <= 0 {
		return DefaultHalfOpenProbes
	}
	return uint32(c.HalfOpenProbes) //nolint:gosec // checked positive above
}

// CheckConfig defines recovery probe behavior for open circuits.
type CheckConfig struct {
	Enabled    *bool `yaml:"enabled" toml:"enabled"`
	IntervalMS int   `yaml:"interval_ms" toml:"interval_ms"`
}

// GetInterval returns the probe interval as time.Duration.
// Returns default 10s if not set or negative.
func (c *CheckConfig) GetInterval() time.Duration {
	if c.IntervalMS <= 0 {
		return time.Duration(DefaultHealthCheckMS) * time.Millisecond
	}
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// IsEnabled returns whether recovery probing is enabled.
// Returns true by default if not explicitly set.
func (c *CheckConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return DefaultHealthEnabled
	}
	return *c.Enabled
}

// Config combines circuit breaker and recovery probe configuration.
type Config struct {
	HealthCheck    CheckConfig          `yaml:"health_check" toml:"health_check"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" toml:"circuit_breaker"`
}
