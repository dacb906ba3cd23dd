package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leadlens/leadlens/internal/config"
)

// SetupRoutes registers the analysis and health endpoints and wraps
// them in the middleware chain.
//
// Middleware order (outermost first):
//  1. RequestID - attach ID and scoped logger before anything logs
//  2. Logging - request start/completion, sees concurrency rejections
//  3. Concurrency - cap in-flight requests
//  4. MaxBodyBytes - cap request body size before handlers read it
func SetupRoutes(runtime config.RuntimeConfig, services Services, healthHandler *HealthHandler, limiter *ConcurrencyLimiter, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	handler := NewAnalysisHandler(services)
	mux.HandleFunc("POST /api/analyze-sentiment", handler.AnalyzeSentiment)
	mux.HandleFunc("POST /api/validate-email", handler.ValidateEmail)
	mux.HandleFunc("POST /api/monitor-website", handler.MonitorWebsite)
	// Legacy alias kept for old dashboard clients.
	mux.HandleFunc("POST /api/askspot-analysis", handler.MonitorWebsite)
	mux.Handle("GET /api/health", healthHandler)

	var chained http.Handler = mux
	chained = MaxBodyBytesMiddleware(func() int64 {
		return runtime.Get().Server.GetMaxBodyBytesOption().OrElse(0)
	})(chained)
	chained = ConcurrencyMiddleware(limiter)(chained)
	chained = LoggingMiddleware(chained)
	chained = RequestIDMiddleware(logger)(chained)
	return chained
}
