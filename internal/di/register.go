package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Cache (depends on Config)
// 4. Responses (depends on Config, Cache)
// 5. RateLimiter (depends on Config)
// 6. HealthTracker (depends on Config, Logger)
// 7. Checker (depends on Config, Logger, HealthTracker)
// 8. Router (depends on Config, RateLimiter, HealthTracker)
// 9. Analysis (depends on Config, Router, Responses)
// 10. Concurrency (depends on Config) - global request limiter
// 11. Handler (depends on all above services)
// 12. Server (depends on Handler, Config).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewCache)
	do.Provide(i, NewResponses)
	do.Provide(i, NewRateLimiter)
	do.Provide(i, NewHealthTracker)
	do.Provide(i, NewChecker)
	do.Provide(i, NewRouter)
	do.Provide(i, NewAnalysis)
	do.Provide(i, NewConcurrency)
	do.Provide(i, NewAPIHandler)
	do.Provide(i, NewHTTPServer)
}
