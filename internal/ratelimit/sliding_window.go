package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

// minuteWindow is the span of the trailing admission window.
const minuteWindow = time.Minute

// admitBuffer pads the computed wait so the oldest slot has aged out of the
// window by the time the re-check runs.
const admitBuffer = time.Second

// SlidingWindowLimiter implements Limiter with a trailing-minute timestamp
// window and a calendar-day counter.
//
// The check-then-reserve sequence runs in a single critical section so
// concurrent callers observe each other's consumption. The wait on a
// saturated window happens outside the lock, followed by a re-check: one
// wait is never assumed to suffice, since other callers may consume the
// freed slots in the meantime.
//
// Thread safety: all methods are safe for concurrent use.
type SlidingWindowLimiter struct {
	mu        sync.Mutex
	perMinute int
	perDay    int
	window    []time.Time // admission timestamps, ascending, within the trailing minute
	dayCount  int
	dayAnchor time.Time

	// now and sleep are swapped out in tests for determinism.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindowLimiter creates a sliding window limiter.
//
// Parameters:
//   - perMinute: calls allowed in any trailing 60s window (0 or negative = unlimited)
//   - perDay: calls allowed per calendar day (0 or negative = unlimited)
func NewSlidingWindowLimiter(perMinute, perDay int) *SlidingWindowLimiter {
	const unlimited = 1_000_000 // Very high limit for "unlimited"

	if perMinute <= 0 {
		perMinute = unlimited
	}
	if perDay <= 0 {
		perDay = unlimited
	}

	return &SlidingWindowLimiter{
		perMinute: perMinute,
		perDay:    perDay,
		dayAnchor: time.Now(),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Admit blocks until a slot is reserved in both windows.
//
// Daily exhaustion returns ErrDailyQuotaExceeded without blocking. A
// saturated minute window sleeps until the oldest admission ages out, then
// re-checks in a loop.
func (l *SlidingWindowLimiter) Admit(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	for {
		wait, err := l.reserve()
		if err != nil {
			return err
		}
		if wait == 0 {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// reserve runs the whole check-then-record sequence under the lock.
// It returns 0 when a slot was recorded, or a positive duration to wait
// before the next check when the minute window is saturated.
func (l *SlidingWindowLimiter) reserve() (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.roll(now)

	if l.dayCount >= l.perDay {
		return 0, ErrDailyQuotaExceeded
	}

	if len(l.window) >= l.perMinute {
		oldest := l.window[0]
		return oldest.Add(minuteWindow).Sub(now) + admitBuffer, nil
	}

	l.window = append(l.window, now)
	l.dayCount++
	return 0, nil
}

// Usage returns consumption against both windows. State is rolled forward
// first so stale timestamps never inflate the numbers.
func (l *SlidingWindowLimiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roll(l.now())

	return Usage{
		MinuteUsed:      len(l.window),
		MinuteLimit:     l.perMinute,
		MinuteRemaining: l.perMinute - len(l.window),
		DayUsed:         l.dayCount,
		DayLimit:        l.perDay,
		DayRemaining:    l.perDay - l.dayCount,
	}
}

// roll prunes the minute window and resets the day counter when the date
// advances. Must be called with the lock held.
func (l *SlidingWindowLimiter) roll(now time.Time) {
	if !sameDay(now, l.dayAnchor) {
		l.dayAnchor = now
		l.dayCount = 0
	}

	cutoff := now.Add(-minuteWindow)
	l.window = lo.DropWhile(l.window, func(t time.Time) bool {
		return !t.After(cutoff)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// sleepContext waits for d or until ctx ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ErrContextCancelled
	case <-timer.C:
		return nil
	}
}
