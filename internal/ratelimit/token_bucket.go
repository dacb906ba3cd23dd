package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter implements Limiter using golang.org/x/time/rate.
//
// Two buckets cover the two quota windows:
//   - minute: refills at perMinute/60 per second, burst = perMinute
//   - day: refills at perDay/86400 per second, burst = perDay, a rolling
//     24h approximation of the calendar-day counter
//
// Burst is set equal to each limit so a cold process can consume the full
// window's capacity instantly, then refill gradually. The bucket trades the
// sliding window's exactness for smooth shaping without per-call timestamp
// bookkeeping.
//
// Thread safety: all methods are safe for concurrent use.
type TokenBucketLimiter struct {
	minute    *rate.Limiter
	day       *rate.Limiter
	perMinute int
	perDay    int
}

// NewTokenBucketLimiter creates a token bucket limiter.
//
// Parameters:
//   - perMinute: calls per minute (0 or negative = unlimited)
//   - perDay: calls per day (0 or negative = unlimited)
func NewTokenBucketLimiter(perMinute, perDay int) *TokenBucketLimiter {
	const unlimited = 1_000_000 // Very high limit for "unlimited"

	if perMinute <= 0 {
		perMinute = unlimited
	}
	if perDay <= 0 {
		perDay = unlimited
	}

	return &TokenBucketLimiter{
		minute:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		day:       rate.NewLimiter(rate.Limit(float64(perDay)/86400.0), perDay),
		perMinute: perMinute,
		perDay:    perDay,
	}
}

// Admit reserves one slot in both buckets.
//
// An empty day bucket fails fast with ErrDailyQuotaExceeded instead of
// waiting for refill; the reservation is canceled so the token is not
// burned on a rejected call. The minute bucket blocks until capacity is
// available or ctx ends.
func (l *TokenBucketLimiter) Admit(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	res := l.day.Reserve()
	if !res.OK() {
		return ErrDailyQuotaExceeded
	}
	if res.Delay() > 0 {
		res.Cancel()
		return ErrDailyQuotaExceeded
	}

	if err := l.minute.Wait(ctx); err != nil {
		res.Cancel()
		if ctx.Err() != nil {
			return ErrContextCancelled
		}
		return err
	}
	return nil
}

// Usage approximates consumption from the buckets' remaining tokens.
//
// Note: golang.org/x/time/rate doesn't expose consumed counts directly.
// Tokens() is accurate enough for status reporting.
func (l *TokenBucketLimiter) Usage() Usage {
	minuteRemaining := clampUsage(int(l.minute.Tokens()), l.perMinute)
	dayRemaining := clampUsage(int(l.day.Tokens()), l.perDay)

	return Usage{
		MinuteUsed:      l.perMinute - minuteRemaining,
		MinuteLimit:     l.perMinute,
		MinuteRemaining: minuteRemaining,
		DayUsed:         l.perDay - dayRemaining,
		DayLimit:        l.perDay,
		DayRemaining:    dayRemaining,
	}
}

func clampUsage(remaining, limit int) int {
	if remaining < 0 {
		return 0
	}
	if remaining > limit {
		return limit
	}
	return remaining
}
