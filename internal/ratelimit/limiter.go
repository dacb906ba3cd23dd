// Package ratelimit provides request admission control for leadlens.
//
// The package abstracts over two admission strategies:
//   - Sliding window: trailing-minute timestamp window plus a calendar-day
//     counter, matching free-tier upstream quota semantics (default)
//   - Token bucket: golang.org/x/time/rate buckets for smooth shaping
//
// All implementations track two dimensions: calls per minute and calls per
// calendar day. One limiter instance is shared by every provider in the
// process, so concurrent callers observe each other's consumption.
//
// Basic usage:
//
//	limiter, err := ratelimit.New(ratelimit.StrategySlidingWindow, 60, 14400)
//	if err != nil {
//		return err
//	}
//
//	// Block until a slot is reserved; fail fast on daily exhaustion.
//	if err := limiter.Admit(ctx); err != nil {
//		return err
//	}
package ratelimit

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by limiters.
var (
	// ErrDailyQuotaExceeded is returned when the calendar-day quota is exhausted.
	ErrDailyQuotaExceeded = errors.New("ratelimit: daily quota exceeded")

	// ErrContextCancelled is returned when the context is canceled during a blocking admission.
	ErrContextCancelled = errors.New("ratelimit: context canceled")
)

// Admission strategies selectable via configuration.
const (
	// StrategySlidingWindow tracks exact call timestamps in a trailing
	// minute window plus a calendar-day counter. Default.
	StrategySlidingWindow = "sliding_window"

	// StrategyTokenBucket shapes traffic with golang.org/x/time/rate buckets.
	StrategyTokenBucket = "token_bucket"
)

// Usage represents current consumption against both quota windows.
type Usage struct {
	// MinuteUsed is the number of calls admitted in the trailing minute.
	MinuteUsed int `json:"minute_used"`

	// MinuteLimit is the maximum number of calls allowed per minute.
	MinuteLimit int `json:"minute_limit"`

	// MinuteRemaining is the number of calls left in the trailing minute.
	MinuteRemaining int `json:"minute_remaining"`

	// DayUsed is the number of calls admitted today.
	DayUsed int `json:"day_used"`

	// DayLimit is the maximum number of calls allowed per calendar day.
	DayLimit int `json:"day_limit"`

	// DayRemaining is the number of calls left today.
	DayRemaining int `json:"day_remaining"`
}

// Limiter defines the admission interface shared by all strategies.
// All implementations must be safe for concurrent use.
//
// Admission covers the whole check-then-reserve sequence: a nil return
// means one slot has been consumed and the remote call may be issued.
// There is no separate record step, so concurrent callers cannot race
// between checking and consuming.
type Limiter interface {
	// Admit blocks until a request slot is reserved or the context ends.
	// It returns ErrDailyQuotaExceeded immediately when the daily quota
	// is exhausted (the day boundary is not worth waiting for) and
	// ErrContextCancelled when ctx is canceled while waiting on the
	// minute window.
	Admit(ctx context.Context) error

	// Usage returns current consumption against both windows.
	Usage() Usage
}

// New creates a Limiter for the given strategy name.
// An empty strategy defaults to the sliding window.
// Zero or negative limits are treated as unlimited.
func New(strategy string, perMinute, perDay int) (Limiter, error) {
	switch strategy {
	case StrategySlidingWindow, "":
		return NewSlidingWindowLimiter(perMinute, perDay), nil
	case StrategyTokenBucket:
		return NewTokenBucketLimiter(perMinute, perDay), nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown strategy %q", strategy)
	}
}
