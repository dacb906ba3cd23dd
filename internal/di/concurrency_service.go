package di

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/api"
	"github.com/leadlens/leadlens/internal/config"
)

// ConcurrencyService wraps the global in-flight request limiter for DI.
type ConcurrencyService struct {
	Limiter *api.ConcurrencyLimiter
}

// NewConcurrency creates the concurrency limiter service.
// The limiter is initialized with the current config value and updated on hot-reload.
func NewConcurrency(i do.Injector) (*ConcurrencyService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	return newConcurrencyService(cfgSvc), nil
}

func newConcurrencyService(cfgSvc *ConfigService) *ConcurrencyService {
	limiter := api.NewConcurrencyLimiter(int64(cfgSvc.Get().Server.MaxConcurrent))
	svc := &ConcurrencyService{Limiter: limiter}

	cfgSvc.OnReload(func(newCfg *config.Config) error {
		newLimit := int64(newCfg.Server.MaxConcurrent)
		oldLimit := limiter.GetLimit()
		if newLimit != oldLimit {
			limiter.SetLimit(newLimit)
			log.Info().
				Int64("old_limit", oldLimit).
				Int64("new_limit", newLimit).
				Msg("concurrency limit updated via hot-reload")
		}
		return nil
	})

	return svc
}
