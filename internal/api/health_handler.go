package api

import (
	"net/http"

	"github.com/leadlens/leadlens/internal/config"
	"github.com/leadlens/leadlens/internal/health"
	"github.com/leadlens/leadlens/internal/ratelimit"
	"github.com/leadlens/leadlens/internal/version"
)

// HealthHandler serves GET /api/health: overall status plus circuit,
// quota, and cache snapshots. It always answers 200; "status" carries
// the verdict so dashboards can poll without special-casing 5xx.
type HealthHandler struct {
	runtime   config.RuntimeConfig
	limiter   ratelimit.Limiter
	tracker   *health.Tracker
	providers func() []string
}

// NewHealthHandler creates a health handler. The provider list is a
// function so the response follows router rebuilds after a config
// reload. The tracker and limiter may be nil when those subsystems are
// disabled.
func NewHealthHandler(runtime config.RuntimeConfig, limiter ratelimit.Limiter, tracker *health.Tracker, providers func() []string) *HealthHandler {
	return &HealthHandler{
		runtime:   runtime,
		limiter:   limiter,
		tracker:   tracker,
		providers: providers,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	cfg := h.runtime.Get()
	status := "healthy"

	providerNames := []string{}
	if h.providers != nil {
		providerNames = h.providers()
	}

	body := map[string]any{
		"server_running": true,
		"providers":      providerNames,
		"cache": map[string]any{
			"mode":     string(cfg.Cache.Mode),
			"disabled": cfg.Cache.Disabled,
		},
		"version":   version.String(),
		"timestamp": isoTimestamp(),
	}

	if h.tracker != nil {
		circuits := make(map[string]string)
		for name, state := range h.tracker.AllStates() {
			circuits[name] = state.String()
			if state != health.StateClosed {
				status = "degraded"
			}
		}
		body["circuits"] = circuits
	}

	if h.limiter != nil {
		usage := h.limiter.Usage()
		body["quota"] = usage
		if usage.DayLimit > 0 && usage.DayRemaining == 0 {
			status = "degraded"
		}
	}

	body["status"] = status
	writeJSON(w, http.StatusOK, body)
}
