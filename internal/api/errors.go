package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leadlens/leadlens/internal/ratelimit"
	"github.com/leadlens/leadlens/internal/router"
)

// errorResponse is the wire shape for every error the API returns.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a flat {"error": message} body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// IsBodyTooLargeError reports whether err came from http.MaxBytesReader.
func IsBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// WriteAnalysisError maps a routing failure onto an HTTP status.
//
// The daily-quota check runs before the exhaustion check: when every
// provider was skipped because the quota ran out, the exhaustion error
// wraps the quota error and the client should see 429, not 503.
func WriteAnalysisError(ctx context.Context, w http.ResponseWriter, err error) {
	log := zerolog.Ctx(ctx)

	var exhausted *router.ExhaustedError
	switch {
	case errors.Is(err, ratelimit.ErrDailyQuotaExceeded):
		log.Warn().Msg("daily quota exhausted, rejecting request")
		WriteError(w, http.StatusTooManyRequests, ratelimit.ErrDailyQuotaExceeded.Error())
	case errors.As(err, &exhausted):
		log.Error().Int("attempts", exhausted.Attempts).Err(err).Msg("all providers exhausted")
		WriteError(w, http.StatusServiceUnavailable, exhausted.Error())
	case errors.Is(err, router.ErrAllProvidersUnhealthy):
		log.Error().Err(err).Msg("no healthy providers available")
		WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		log.Debug().Msg("request canceled by client")
	default:
		log.Error().Err(err).Msg("analysis failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
