package health

import "github.com/rs/zerolog"

// NewTestBreaker builds a CircuitBreaker named "test-provider" with the
// given settings (zero values fall back to defaults) for testing.
func NewTestBreaker(failureThreshold, openDurationMS, halfOpenProbes int) *CircuitBreaker {
	logger := zerolog.Nop()
	cfg := CircuitBreakerConfig{
		FailureThreshold: failureThreshold,
		OpenDurationMS:   openDurationMS,
		HalfOpenProbes:   halfOpenProbes,
	}
	return NewCircuitBreaker("test-provider", cfg, &logger)
}

// HasCircuits returns whether the circuits map is initialized (for testing).
func (t *Tracker) HasCircuits() bool {
	return t.circuits != nil
}
