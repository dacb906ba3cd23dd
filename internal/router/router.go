// Package router fans one completion request out across providers in
// priority order.
//
// The walk is strictly sequential: providers sorted ascending by
// priority, first success wins. A rate-limited provider earns a backoff
// sleep before the next attempt; a rejected request moves on immediately.
// Only when every provider has failed does the caller see an error,
// aggregated into an ExhaustedError carrying the last failure observed.
package router

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/leadlens/leadlens/internal/providers"
)

// DefaultBackoff is slept after a rate-limited attempt before the next
// provider is tried.
const DefaultBackoff = 2 * time.Second

// Common errors returned by the router.
var (
	// ErrNoProviders is returned at construction when no providers are
	// configured. A service without providers cannot start.
	ErrNoProviders = errors.New("router: no providers configured")

	// ErrAllProvidersUnhealthy is returned when every provider was
	// skipped because its circuit is open.
	ErrAllProvidersUnhealthy = errors.New("router: all providers unhealthy")
)

// ExhaustedError reports that every dispatched provider failed for one
// request. It carries the last underlying failure for diagnostics.
type ExhaustedError struct {
	LastErr  error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	if e.LastErr == nil {
		return fmt.Sprintf("router: all %d providers exhausted", e.Attempts)
	}
	return fmt.Sprintf("router: all %d providers exhausted, last error: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Entry wraps a provider with routing metadata.
type Entry struct {
	Provider  providers.Provider
	IsHealthy func() bool
}

// Healthy returns true if the provider is currently healthy.
// Returns true if no health check function is configured.
func (e Entry) Healthy() bool {
	if e.IsHealthy == nil {
		return true
	}
	return e.IsHealthy()
}

// Monitor receives per-provider outcomes. The health tracker implements
// it; a nil Monitor records nothing.
type Monitor interface {
	RecordSuccess(provider string)
	RecordFailure(provider string, err error)
}

// Result is one routed completion.
type Result struct {
	Data     map[string]any
	Provider string
	Text     string
	Latency  time.Duration
}

// Router walks providers in ascending priority order until one succeeds.
type Router struct {
	monitor Monitor
	sleep   func(ctx context.Context, d time.Duration) error
	entries []Entry
	backoff time.Duration
}

// New creates a router over entries, sorted ascending by provider
// priority. Returns ErrNoProviders when entries is empty: this is a
// construction-time configuration error, not a runtime condition to
// retry. backoff <= 0 falls back to DefaultBackoff.
func New(entries []Entry, backoff time.Duration, monitor Monitor) (*Router, error) {
	if len(entries) == 0 {
		return nil, ErrNoProviders
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &Router{
		monitor: monitor,
		sleep:   sleepContext,
		entries: sortByPriority(entries),
		backoff: backoff,
	}, nil
}

// Providers returns the configured provider names in dispatch order.
func (r *Router) Providers() []string {
	return lo.Map(r.entries, func(e Entry, _ int) string {
		return e.Provider.Name()
	})
}

// Backoff returns the configured rate-limit backoff.
func (r *Router) Backoff() time.Duration {
	return r.backoff
}

// Complete dispatches req to the first provider able to serve it.
//
// Per attempt: an open circuit skips the provider; success returns
// immediately with the provider name and elapsed latency; a rate-limited
// failure sleeps the backoff before moving on; any other failure moves on
// without delay. A canceled context aborts the walk.
func (r *Router) Complete(ctx context.Context, req providers.Request) (*Result, error) {
	var lastErr error
	attempts := 0

	for _, entry := range r.entries {
		name := entry.Provider.Name()

		if !entry.Healthy() {
			log.Ctx(ctx).Warn().Str("provider", name).Msg("skipping provider with open circuit")
			continue
		}

		attempts++
		start := time.Now()

		resp, err := entry.Provider.Complete(ctx, req)
		if err == nil {
			latency := time.Since(start)
			r.recordSuccess(name)
			log.Ctx(ctx).Info().
				Str("provider", name).
				Dur("latency", latency).
				Msg("provider served request")
			return &Result{
				Data:     resp.Data,
				Provider: name,
				Text:     resp.Text,
				Latency:  latency,
			}, nil
		}

		lastErr = err
		r.recordFailure(name, err)

		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		if providers.IsRateLimited(err) {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("provider", name).
				Dur("backoff", r.backoff).
				Msg("provider rate limited, backing off before next")
			if sleepErr := r.sleep(ctx, r.backoff); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		log.Ctx(ctx).Warn().
			Err(err).
			Str("provider", name).
			Msg("provider failed, trying next")
	}

	if attempts == 0 {
		return nil, ErrAllProvidersUnhealthy
	}
	return nil, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

func (r *Router) recordSuccess(name string) {
	if r.monitor != nil {
		r.monitor.RecordSuccess(name)
	}
}

func (r *Router) recordFailure(name string, err error) {
	if r.monitor != nil {
		r.monitor.RecordFailure(name, err)
	}
}

// sortByPriority returns entries sorted by priority ascending (primary
// first). Makes a copy to avoid mutating the input slice; the stable sort
// keeps configuration order for equal priorities.
func sortByPriority(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return a.Provider.Priority() - b.Provider.Priority() // Ascending
	})
	return sorted
}

// sleepContext blocks for d or until ctx ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
