package api

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// RequestIDMiddleware attaches a request ID and scoped logger to every
// request, echoing the ID back in the X-Request-ID response header.
func RequestIDMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, requestID := AddRequestID(r.Context(), r, logger)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs request start and completion with timing.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := zerolog.Ctx(r.Context())
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(r.Method + " " + r.URL.Path)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		completionEvent(log, wrapped.statusCode).
			Int("status", wrapped.statusCode).
			Str("duration", formatDuration(duration)).
			Msg(formatCompletionMessage(wrapped.statusCode, duration))
	})
}

// completionEvent picks the log level for a finished request.
func completionEvent(log *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	default:
		return log.Info()
	}
}

func formatCompletionMessage(status int, duration time.Duration) string {
	return fmt.Sprintf("%s %s (%s)", statusSymbol(status), http.StatusText(status), formatDuration(duration))
}

func statusSymbol(status int) string {
	switch {
	case status >= 500:
		return "✗"
	case status >= 300:
		return "⚠"
	default:
		return "✓"
	}
}

// formatDuration renders a duration with units scaled to its size.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets wrapped handlers stream when the underlying writer can.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ConcurrencyLimiter caps in-flight requests with an atomic counter.
// A limit <= 0 means unlimited.
type ConcurrencyLimiter struct {
	limit    atomic.Int64
	inFlight atomic.Int64
}

// NewConcurrencyLimiter creates a limiter with the given cap.
func NewConcurrencyLimiter(limit int64) *ConcurrencyLimiter {
	cl := &ConcurrencyLimiter{}
	cl.limit.Store(limit)
	return cl
}

// TryAcquire reserves a slot, returning false when the server is full.
func (cl *ConcurrencyLimiter) TryAcquire() bool {
	limit := cl.limit.Load()
	if limit <= 0 {
		cl.inFlight.Add(1)
		return true
	}
	for {
		current := cl.inFlight.Load()
		if current >= limit {
			return false
		}
		if cl.inFlight.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release frees a slot reserved by TryAcquire.
func (cl *ConcurrencyLimiter) Release() {
	cl.inFlight.Add(-1)
}

// SetLimit adjusts the cap at runtime. In-flight requests are unaffected.
func (cl *ConcurrencyLimiter) SetLimit(limit int64) {
	cl.limit.Store(limit)
}

// GetLimit returns the current cap.
func (cl *ConcurrencyLimiter) GetLimit() int64 {
	return cl.limit.Load()
}

// CurrentInFlight returns the number of requests currently held.
func (cl *ConcurrencyLimiter) CurrentInFlight() int64 {
	return cl.inFlight.Load()
}

// ConcurrencyMiddleware rejects requests with 503 when the limiter is
// saturated. A nil limiter disables the check.
func ConcurrencyMiddleware(limiter *ConcurrencyLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.TryAcquire() {
				zerolog.Ctx(r.Context()).Warn().
					Int64("limit", limiter.GetLimit()).
					Msg("concurrency limit reached, rejecting request")
				WriteError(w, http.StatusServiceUnavailable, "server is at maximum capacity, please retry later")
				return
			}
			defer limiter.Release()
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodyBytesMiddleware caps request body size. The limit is read per
// request so config reloads take effect without a restart. A limit <= 0
// disables the cap.
func MaxBodyBytesMiddleware(limitProvider func() int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit := limitProvider(); limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
