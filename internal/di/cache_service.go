package di

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/cache"
)

// CacheService wraps the cache backend.
type CacheService struct {
	Cache cache.Cache
}

// NewCache creates the cache backend based on configuration.
// A config file without a cache section gets the single-node backend
// with default sizing, so minimal configs stay bootable.
func NewCache(i do.Injector) (*CacheService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	cacheCfg := cfgSvc.Get().Cache
	if cacheCfg.Mode == "" {
		cacheCfg.Mode = cache.ModeSingle
	}
	if cacheCfg.Mode == cache.ModeSingle && cacheCfg.Ristretto == (cache.RistrettoConfig{}) {
		cacheCfg.Ristretto = cache.DefaultRistrettoConfig()
	}

	// Use a background context with timeout for cache initialization;
	// the HA backend may need to join a cluster.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := cache.New(ctx, &cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &CacheService{Cache: c}, nil
}

// Shutdown implements do.Shutdowner for graceful cache cleanup.
func (c *CacheService) Shutdown() error {
	if c.Cache != nil {
		return c.Cache.Close()
	}
	return nil
}

// ResponsesService wraps the analysis response cache layered over the
// backend. The disabled check reads the live config, so toggling
// cache.disabled (or the DISABLE_CACHE env override on reload) takes
// effect without a restart.
type ResponsesService struct {
	Responses *cache.ResponseCache
}

// NewResponses creates the response cache over the configured backend.
func NewResponses(i do.Injector) (*ResponsesService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	cacheSvc := do.MustInvoke[*CacheService](i)

	ttl := cfgSvc.Get().Cache.GetTTLOption().OrElse(0)
	responses := cache.NewResponseCache(cacheSvc.Cache, ttl, func() bool {
		return cfgSvc.Get().Cache.Disabled
	})

	return &ResponsesService{Responses: responses}, nil
}
