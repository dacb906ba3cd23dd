package di

import (
	"net/http"

	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/api"
)

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// NewAPIHandler creates the HTTP handler with all middleware.
// Everything config-derived is wired through live accessors:
// - Provider list on /api/health follows router rebuilds
// - Body size limit is read per request
// - Concurrency limit updates via SetLimit on reload
func NewAPIHandler(injector do.Injector) (*HandlerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](injector)
	loggerSvc := do.MustInvoke[*LoggerService](injector)
	limiterSvc := do.MustInvoke[*RateLimiterService](injector)
	trackerSvc := do.MustInvoke[*HealthTrackerService](injector)
	routerSvc := do.MustInvoke[*RouterService](injector)
	analysisSvc := do.MustInvoke[*AnalysisService](injector)
	concurrencySvc := do.MustInvoke[*ConcurrencyService](injector)

	healthHandler := api.NewHealthHandler(
		cfgSvc,
		limiterSvc.Limiter,
		trackerSvc.Tracker,
		routerSvc.Providers,
	)
	handler := api.SetupRoutes(
		cfgSvc,
		analysisSvc.Services,
		healthHandler,
		concurrencySvc.Limiter,
		*loggerSvc.Logger,
	)

	return &HandlerService{Handler: handler}, nil
}
