// Recovery probing for open circuits. When a provider's circuit opens,
// waiting out the full cooldown is the only path back to HALF-OPEN; the
// checker runs cheap periodic probes against providers with OPEN
// circuits so recoveries are noticed and logged as they happen.
// CLOSED and HALF-OPEN circuits are never probed.

package health

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProviderHealthCheck defines how to check if a provider is reachable.
// Implementations should be lightweight and fast (not full AI calls).
type ProviderHealthCheck interface {
	// Check performs a health check against the provider.
	// Returns nil if healthy, error if unhealthy.
	Check(ctx context.Context) error

	// ProviderName returns the name of the provider being checked.
	ProviderName() string
}

// HTTPHealthCheck probes a provider endpoint with a GET request.
// Any 2xx response counts as healthy.
type HTTPHealthCheck struct {
	name   string
	url    string
	host   string
	client *http.Client
}

// NewHTTPHealthCheck creates an HTTP-based health check.
// Returns an error if the URL cannot be parsed.
func NewHTTPHealthCheck(name, rawURL string, client *http.Client) (*HTTPHealthCheck, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("health: parse check url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPHealthCheck{
		name:   name,
		url:    rawURL,
		host:   parsed.Host,
		client: client,
	}, nil
}

// Check performs the HTTP health check.
func (h *HTTPHealthCheck) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrHealthCheckFailed, resp.StatusCode)
	}
	return nil
}

// ProviderName returns the name of the provider being checked.
func (h *HTTPHealthCheck) ProviderName() string {
	return h.name
}

// NoOpHealthCheck always reports healthy.
// Used when a provider has no probeable endpoint.
type NoOpHealthCheck struct {
	name string
}

// NewNoOpHealthCheck creates a no-op health check that always succeeds.
func NewNoOpHealthCheck(name string) *NoOpHealthCheck {
	return &NoOpHealthCheck{name: name}
}

// Check always returns nil (healthy).
func (n *NoOpHealthCheck) Check(_ context.Context) error {
	return nil
}

// ProviderName returns the name of the provider.
func (n *NoOpHealthCheck) ProviderName() string {
	return n.name
}

// NewProviderHealthCheck creates a health check appropriate for the provider.
// Providers without a base URL (and URLs that fail to parse) get a no-op
// check; everything else is probed over HTTP.
func NewProviderHealthCheck(name, baseURL string, client *http.Client) ProviderHealthCheck {
	if baseURL == "" {
		return NewNoOpHealthCheck(name)
	}
	check, err := NewHTTPHealthCheck(name, baseURL, client)
	if err != nil {
		return NewNoOpHealthCheck(name)
	}
	return check
}

// Checker monitors providers whose circuits are OPEN and records a
// success on the tracker when a probe comes back healthy.
type Checker struct {
	ctx     context.Context
	tracker *Tracker
	checks  map[string]ProviderHealthCheck
	logger  *zerolog.Logger
	cancel  context.CancelFunc
	config  CheckConfig
	wg      sync.WaitGroup
	mu      sync.RWMutex
}

// NewChecker creates a new Checker.
func NewChecker(tracker *Tracker, cfg CheckConfig, logger *zerolog.Logger) *Checker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		tracker: tracker,
		config:  cfg,
		checks:  make(map[string]ProviderHealthCheck),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterProvider adds a health check for a provider.
func (h *Checker) RegisterProvider(check ProviderHealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[check.ProviderName()] = check
}

// Start begins periodic probing for all registered providers.
// Should be called once after all providers are registered.
func (h *Checker) Start() {
	if !h.config.IsEnabled() {
		if h.logger != nil {
			h.logger.Info().Msg("health checker disabled")
		}
		return
	}

	interval := h.config.GetInterval()
	// Jitter (0-2s) keeps a fleet of instances from probing in lockstep
	jitter := cryptoRandDuration(2 * time.Second)
	ticker := time.NewTicker(interval + jitter)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()

		if h.logger != nil {
			h.logger.Info().
				Dur("interval", interval).
				Dur("jitter", jitter).
				Msg("health checker started")
		}

		for {
			select {
			case <-h.ctx.Done():
				if h.logger != nil {
					h.logger.Info().Msg("health checker stopped")
				}
				return
			case <-ticker.C:
				h.checkAllProviders()
			}
		}
	}()
}

// Stop stops the health checker and waits for the goroutine to finish.
func (h *Checker) Stop() {
	h.cancel()
	h.wg.Wait()
}

// checkAllProviders runs health checks for all providers with OPEN circuits.
func (h *Checker) checkAllProviders() {
	h.mu.RLock()
	checks := make([]ProviderHealthCheck, 0, len(h.checks))
	for _, check := range h.checks {
		checks = append(checks, check)
	}
	h.mu.RUnlock()

	for _, check := range checks {
		name := check.ProviderName()
		state := h.tracker.GetState(name)

		if state != StateOpen {
			continue
		}

		ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
		err := check.Check(ctx)
		cancel()

		if err != nil {
			if h.logger != nil {
				h.logger.Debug().
					Str("provider", name).
					Err(err).
					Msg("health check failed")
			}
			continue
		}

		if h.logger != nil {
			h.logger.Info().
				Str("provider", name).
				Msg("health check succeeded, recording success")
		}
		h.tracker.RecordSuccess(name)
	}
}

// cryptoRandDuration returns a random duration in [0, maxDur).
func cryptoRandDuration(maxDur time.Duration) time.Duration {
	if maxDur <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	n := binary.LittleEndian.Uint64(b[:])
	//nolint:gosec // maxDur checked positive above
	return time.Duration(n % uint64(maxDur))
}
