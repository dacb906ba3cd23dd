package di

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/config"
	"github.com/leadlens/leadlens/internal/health"
)

// HealthTrackerService wraps the circuit breaker tracker for DI.
// Tracker is nil when circuit breaking is disabled; consumers treat a
// nil tracker as "every provider healthy, record nothing".
type HealthTrackerService struct {
	Tracker *health.Tracker
}

// CheckerService wraps the recovery prober for DI.
type CheckerService struct {
	Checker    *health.Checker
	trackerSvc *HealthTrackerService
	logger     *LoggerService
	started    bool
	startedMu  sync.Mutex
}

// NewHealthTracker creates the circuit breaker tracker from configuration.
// Threshold and cooldown changes require a restart; circuit state is
// deliberately kept across config reloads so an open provider cannot be
// revived by editing an unrelated setting.
func NewHealthTracker(i do.Injector) (*HealthTrackerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)

	cfg := cfgSvc.Get()
	if !cfg.Health.CircuitBreaker.IsEnabled() {
		return &HealthTrackerService{}, nil
	}

	tracker := health.NewTracker(cfg.Health.CircuitBreaker, loggerSvc.Logger)
	return &HealthTrackerService{Tracker: tracker}, nil
}

// NewChecker creates the recovery prober from configuration. The provider
// set is rebuilt on config reload so newly enabled providers get probed.
func NewChecker(i do.Injector) (*CheckerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	trackerSvc := do.MustInvoke[*HealthTrackerService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)

	checkerSvc := &CheckerService{
		trackerSvc: trackerSvc,
		logger:     loggerSvc,
	}
	checkerSvc.Checker = checkerSvc.buildFrom(cfgSvc.Get())

	cfgSvc.OnReload(func(newCfg *config.Config) error {
		checkerSvc.swapChecker(checkerSvc.buildFrom(newCfg))
		return nil
	})

	return checkerSvc, nil
}

// Start starts the recovery prober and records that it is running.
// Safe to call when probing or circuit breaking is disabled.
func (h *CheckerService) Start() {
	h.startedMu.Lock()
	h.started = true
	checker := h.Checker
	h.startedMu.Unlock()

	if checker != nil {
		checker.Start()
	}
}

// Shutdown implements do.Shutdowner for graceful checker cleanup.
func (h *CheckerService) Shutdown() error {
	h.startedMu.Lock()
	defer h.startedMu.Unlock()
	if h.Checker != nil && h.started {
		h.Checker.Stop()
	}
	h.started = false
	return nil
}

// buildFrom constructs a checker probing every enabled provider, or nil
// when circuit breaking or probing is off.
func (h *CheckerService) buildFrom(cfg *config.Config) *health.Checker {
	if h.trackerSvc.Tracker == nil || !cfg.Health.HealthCheck.IsEnabled() {
		return nil
	}

	checker := health.NewChecker(h.trackerSvc.Tracker, cfg.Health.HealthCheck, h.logger.Logger)
	for idx := range cfg.Providers {
		providerConfig := &cfg.Providers[idx]
		if !providerConfig.Enabled {
			continue
		}

		baseURL := providerHealthBaseURL(providerConfig)
		checker.RegisterProvider(health.NewProviderHealthCheck(providerConfig.Name, baseURL, nil))
		h.logger.Logger.Debug().
			Str("provider", providerConfig.Name).
			Str("base_url", baseURL).
			Msg("registered health check")
	}

	return checker
}

// swapChecker replaces the running checker, preserving the started state.
func (h *CheckerService) swapChecker(next *health.Checker) {
	h.startedMu.Lock()
	wasRunning := h.started
	oldChecker := h.Checker
	h.Checker = next
	h.startedMu.Unlock()

	if oldChecker != nil && wasRunning {
		oldChecker.Stop()
	}
	if next != nil && wasRunning {
		next.Start()
	}
}
