package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/ratelimit"
)

// RateLimiterService wraps the shared admission limiter. Every provider
// admits through the same instance, so the minute and day windows cap
// total upstream spend no matter which vendor serves a request.
type RateLimiterService struct {
	Limiter ratelimit.Limiter
}

// NewRateLimiter creates the limiter from the quota configuration.
// Quota changes require a restart; resetting window state on reload
// would forgive calls already spent.
func NewRateLimiter(i do.Injector) (*RateLimiterService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	quota := cfgSvc.Get().Quota

	limiter, err := ratelimit.New(
		quota.GetEffectiveStrategy(),
		quota.GetCallsPerMinute(),
		quota.GetCallsPerDay(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	return &RateLimiterService{Limiter: limiter}, nil
}
