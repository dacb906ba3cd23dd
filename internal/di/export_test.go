package di

import (
	"github.com/leadlens/leadlens/internal/cache"
	"github.com/leadlens/leadlens/internal/config"
	"github.com/leadlens/leadlens/internal/health"
)

// This file exports unexported identifiers for tests in package di_test.

// CreateProvider exposes provider construction for tests.
var CreateProvider = createProvider

// ProviderHealthBaseURL exposes health probe URL resolution for tests.
var ProviderHealthBaseURL = providerHealthBaseURL

// ApplyReload runs the validate-store-notify reload path directly, bypassing
// the file watcher.
func (c *ConfigService) ApplyReload(cfg *config.Config) error {
	return c.applyReload(cfg)
}

// GetWatcher returns the config file watcher, nil when watching is disabled.
func (c *ConfigService) GetWatcher() *config.Watcher {
	return c.watcher
}

// NewConfigServiceWithConfig creates a ConfigService holding cfg with no
// file watcher attached.
func NewConfigServiceWithConfig(cfg *config.Config) *ConfigService {
	return &ConfigService{runtime: config.NewRuntime(cfg)}
}

// NewRouterServiceWithConfigService builds a RouterService against cfgSvc
// with rate limiting and circuit breaking disabled.
func NewRouterServiceWithConfigService(cfgSvc *ConfigService) (*RouterService, error) {
	svc := &RouterService{
		cfgSvc:     cfgSvc,
		limiterSvc: &RateLimiterService{},
		trackerSvc: &HealthTrackerService{},
	}
	if err := svc.rebuildFrom(cfgSvc.Get()); err != nil {
		return nil, err
	}
	svc.watchReloads()
	return svc, nil
}

// NewConcurrencyServiceWithConfigService builds a ConcurrencyService
// subscribed to cfgSvc reloads.
func NewConcurrencyServiceWithConfigService(cfgSvc *ConfigService) *ConcurrencyService {
	return newConcurrencyService(cfgSvc)
}

// NewHealthTrackerServiceWithTracker wraps an existing tracker.
func NewHealthTrackerServiceWithTracker(tracker *health.Tracker) *HealthTrackerService {
	return &HealthTrackerService{Tracker: tracker}
}

// MustTestConfig returns a minimal valid config for tests. The cache is
// disabled so no background goroutines outlive the test.
func MustTestConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Listen: "127.0.0.1:8787",
		},
		Providers: []config.ProviderConfig{
			MustTestProviderConfig("groq-primary", config.ProviderGroq, 0),
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: cache.Config{
			Mode: cache.ModeDisabled,
		},
	}
}

// MustTestProviderConfig returns an enabled provider config of the given
// type, with the credential fields that type requires filled in.
func MustTestProviderConfig(name, providerType string, priority int) config.ProviderConfig {
	pc := config.ProviderConfig{
		Name:     name,
		Type:     providerType,
		Priority: priority,
		Enabled:  true,
	}
	switch providerType {
	case config.ProviderGroq, config.ProviderOpenAI:
		pc.APIKey = "test-key-" + name
	case config.ProviderBedrock:
		pc.AWSRegion = "us-east-1"
		pc.AWSAccessKeyID = "AKIATESTKEY"
		pc.AWSSecretAccessKey = "test-secret"
	}
	return pc
}
