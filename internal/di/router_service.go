package di

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/analysis"
	"github.com/leadlens/leadlens/internal/config"
	"github.com/leadlens/leadlens/internal/providers"
	"github.com/leadlens/leadlens/internal/router"
)

// providerInitTimeout bounds provider construction. Only the Bedrock
// credential chain does I/O here; the HTTP vendors construct instantly.
const providerInitTimeout = 30 * time.Second

// RouterService owns the failover router with hot-reload support.
//
// The provider fleet and router are rebuilt from each accepted config
// reload and swapped atomically, so provider edits (add, disable,
// reprioritize) take effect without a restart. Requests in flight keep
// the router they started with. A rebuild that fails, for example a
// bedrock entry without a region, keeps the previous router serving.
type RouterService struct {
	current    atomic.Pointer[router.Router]
	cfgSvc     *ConfigService
	limiterSvc *RateLimiterService
	trackerSvc *HealthTrackerService
}

// Analysis services dispatch through the service, not a router snapshot.
var _ analysis.Completer = (*RouterService)(nil)

// NewRouter creates the router service and subscribes it to config reloads.
func NewRouter(i do.Injector) (*RouterService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	limiterSvc := do.MustInvoke[*RateLimiterService](i)
	trackerSvc := do.MustInvoke[*HealthTrackerService](i)

	svc := &RouterService{
		cfgSvc:     cfgSvc,
		limiterSvc: limiterSvc,
		trackerSvc: trackerSvc,
	}
	if err := svc.rebuildFrom(cfgSvc.Get()); err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	svc.watchReloads()

	return svc, nil
}

// Get returns the current router (lock-free read).
func (s *RouterService) Get() *router.Router {
	return s.current.Load()
}

// Complete dispatches one request through the current router, applying
// the configured request timeout. Holding the service rather than a
// router pointer means a rebuilt provider fleet serves the next call.
func (s *RouterService) Complete(ctx context.Context, req providers.Request) (*router.Result, error) {
	if timeout, ok := s.cfgSvc.Get().Routing.GetRequestTimeoutOption().Get(); ok {
		req.Timeout = timeout
	}
	return s.Get().Complete(ctx, req)
}

// Providers returns the current dispatch-ordered provider names.
func (s *RouterService) Providers() []string {
	return s.Get().Providers()
}

// rebuildFrom constructs the provider fleet and router for cfg and swaps
// them in. The previous router keeps serving if anything fails.
func (s *RouterService) rebuildFrom(cfg *config.Config) error {
	enabled := cfg.EnabledProviders()

	ctx, cancel := context.WithTimeout(context.Background(), providerInitTimeout)
	defer cancel()

	entries := make([]router.Entry, 0, len(enabled))
	for idx := range enabled {
		providerConfig := &enabled[idx]
		provider, err := createProvider(ctx, providerConfig, s.limiterSvc.Limiter)
		if err != nil {
			return fmt.Errorf("provider %s: %w", providerConfig.Name, err)
		}
		entries = append(entries, router.Entry{
			Provider:  provider,
			IsHealthy: s.healthFunc(providerConfig.Name),
		})
	}

	r, err := router.New(entries, cfg.Routing.GetRetryBackoff(), s.monitor())
	if err != nil {
		return err
	}
	s.current.Store(r)

	return nil
}

func (s *RouterService) watchReloads() {
	s.cfgSvc.OnReload(func(newCfg *config.Config) error {
		if err := s.rebuildFrom(newCfg); err != nil {
			log.Error().Err(err).Msg("router rebuild failed, keeping previous providers")
			return err
		}
		log.Info().Strs("providers", s.Providers()).Msg("router rebuilt after config reload")
		return nil
	})
}

// healthFunc returns the circuit probe for a provider, or nil when
// circuit breaking is disabled (the router treats nil as healthy).
func (s *RouterService) healthFunc(name string) func() bool {
	if s.trackerSvc.Tracker == nil {
		return nil
	}
	return s.trackerSvc.Tracker.IsHealthyFunc(name)
}

// monitor returns the outcome sink for the router. The explicit nil
// keeps a disabled tracker from arriving as a non-nil interface.
func (s *RouterService) monitor() router.Monitor {
	if s.trackerSvc.Tracker == nil {
		return nil
	}
	return s.trackerSvc.Tracker
}
