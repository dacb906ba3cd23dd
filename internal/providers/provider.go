// Package providers implements the vendor adapters the router dispatches to.
//
// Every adapter satisfies Provider: a single Complete call that admits
// itself through the shared rate limiter, issues exactly one remote
// request, and classifies the outcome as success, rate limited, or failed.
// Rate-limited outcomes cover genuine throttling as well as transient
// unavailability (5xx, timeouts, unreachable endpoints) so the router can
// treat both with backoff-then-failover.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Response formats a caller can request. FormatJSON instructs the remote
// model to emit a JSON object and runs the reply through the normalizer;
// FormatText returns the reply verbatim.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Defaults applied by NewRequest.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 900
	DefaultTimeout     = 60 * time.Second
)

// Request carries one completion request through a Provider.
type Request struct {
	Prompt      string
	System      string
	Format      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewRequest returns a Request for prompt with the default knobs applied.
// Callers adjust fields afterwards; an explicit zero Temperature survives.
func NewRequest(prompt string) Request {
	return Request{
		Prompt:      prompt,
		Format:      FormatJSON,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}

// Response is a classified success. Data is populated only for FormatJSON
// requests and is never nil in that case: output no strategy can decode
// degrades to a tagged fallback object rather than an error.
type Response struct {
	Data map[string]any
	Text string
}

// Provider is one upstream model vendor. Complete blocks until the shared
// rate limiter admits the call, then issues one remote request bounded by
// the Request timeout.
type Provider interface {
	Name() string
	Priority() int
	Complete(ctx context.Context, req Request) (*Response, error)
}

// RateLimitedError reports a transient upstream condition: an explicit
// 429, a 5xx response, or a timed-out or unreachable endpoint. The router
// backs off before failing over to the next provider.
type RateLimitedError struct {
	Err      error
	Provider string
	Message  string
	Status   int
}

func (e *RateLimitedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// RequestError reports a non-transient rejection, typically a 4xx for a
// malformed or unauthorized request. The router fails over without delay;
// retrying the same payload against the same provider will not succeed.
type RequestError struct {
	Provider string
	Message  string
	Status   int
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: request failed (status %d): %s", e.Provider, e.Status, e.Message)
}

// IsRateLimited reports whether err classifies as transient, meaning the
// router should back off before trying the next provider.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
