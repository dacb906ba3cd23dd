package di

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/config"
)

// ConfigService wraps the loaded configuration with hot-reload support.
// The current snapshot lives behind config.Runtime for lock-free reads;
// in-flight requests keep their snapshot while new requests see the
// reloaded one.
//
// File changes are gated: a rewrite that fails validation is rejected
// wholesale and the previous config stays in effect. Subscribers
// registered with OnReload observe accepted configs only, so no service
// ever applies half of a bad edit.
type ConfigService struct {
	runtime *config.Runtime
	watcher *config.Watcher
	path    string

	mu          sync.Mutex
	subscribers []config.ReloadCallback
}

var _ config.RuntimeConfig = (*ConfigService)(nil)

// Get returns the current configuration snapshot (lock-free read).
// This is the preferred method for accessing config during request handling.
func (c *ConfigService) Get() *config.Config {
	return c.runtime.Get()
}

// Path returns the config file path, or empty when configuration came
// from environment discovery.
func (c *ConfigService) Path() string {
	return c.path
}

// OnReload registers a callback invoked after a changed config file has
// passed validation and the runtime snapshot has been swapped.
func (c *ConfigService) OnReload(cb config.ReloadCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, cb)
}

// applyReload is the single watcher callback: validate, swap, fan out.
func (c *ConfigService) applyReload(newCfg *config.Config) error {
	if err := newCfg.Validate(); err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("rejecting invalid config reload")
		return err
	}

	c.runtime.Store(newCfg)
	log.Info().Str("path", c.path).Msg("config hot-reloaded successfully")

	c.mu.Lock()
	subscribers := make([]config.ReloadCallback, len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, cb := range subscribers {
		if err := cb(newCfg); err != nil {
			log.Error().Err(err).Msg("config reload subscriber failed")
		}
	}

	return nil
}

// StartWatching begins watching the config file for changes.
// This should be called after the DI container is fully initialized so
// every subscriber is registered before the first reload can fire.
// The context controls the watcher lifecycle - cancel to stop watching.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner for graceful watcher cleanup.
func (c *ConfigService) Shutdown() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// NewConfig loads and validates the configuration for the container.
// An empty config path falls back to environment discovery, in which
// case there is no file to watch and hot-reload is unavailable.
// The watcher is created but not started - call StartWatching() after
// container init.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	if path == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config from environment: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid environment config: %w", err)
		}
		return &ConfigService{runtime: config.NewRuntime(cfg)}, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	svc := &ConfigService{
		runtime: config.NewRuntime(cfg),
		path:    path,
	}

	// Create watcher (warn on failure, don't error - hot-reload is optional)
	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
	} else {
		watcher.OnReload(svc.applyReload)
		svc.watcher = watcher
	}

	return svc, nil
}
