package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leadlens/leadlens/internal/providers"
)

// stubProvider is a scripted provider. Complete is sequential per router
// walk, so plain counters are safe.
type stubProvider struct {
	err      error
	resp     *providers.Response
	name     string
	priority int
	calls    int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Priority() int { return s.priority }

func (s *stubProvider) Complete(_ context.Context, _ providers.Request) (*providers.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type recordingMonitor struct {
	successes []string
	failures  []string
}

func (m *recordingMonitor) RecordSuccess(provider string) {
	m.successes = append(m.successes, provider)
}

func (m *recordingMonitor) RecordFailure(provider string, _ error) {
	m.failures = append(m.failures, provider)
}

// captureSleeps replaces the router's backoff sleep with a recorder.
func captureSleeps(r *Router) *[]time.Duration {
	slept := &[]time.Duration{}
	r.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return slept
}

func entriesFor(stubs ...*stubProvider) []Entry {
	entries := make([]Entry, len(stubs))
	for i, s := range stubs {
		entries[i] = Entry{Provider: s}
	}
	return entries
}

func TestNew_NoProviders(t *testing.T) {
	t.Parallel()

	_, err := New(nil, 0, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Errorf("Expected ErrNoProviders, got %v", err)
	}
}

func TestNew_SortsByPriorityAscending(t *testing.T) {
	t.Parallel()

	r, err := New(entriesFor(
		&stubProvider{name: "fallback", priority: 5},
		&stubProvider{name: "primary", priority: 0},
		&stubProvider{name: "secondary", priority: 2},
	), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Providers()
	want := []string{"primary", "secondary", "fallback"}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("Expected Providers()[%d]=%s, got %s", i, name, got[i])
		}
	}
}

func TestNew_StableForEqualPriorities(t *testing.T) {
	t.Parallel()

	r, err := New(entriesFor(
		&stubProvider{name: "first", priority: 1},
		&stubProvider{name: "second", priority: 1},
	), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Providers()
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("Expected configuration order kept for equal priorities, got %v", got)
	}
}

func TestNew_BackoffDefault(t *testing.T) {
	t.Parallel()

	r, err := New(entriesFor(&stubProvider{name: "only"}), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if r.Backoff() != DefaultBackoff {
		t.Errorf("Expected backoff=%v, got %v", DefaultBackoff, r.Backoff())
	}

	custom, err := New(entriesFor(&stubProvider{name: "only"}), 500*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if custom.Backoff() != 500*time.Millisecond {
		t.Errorf("Expected backoff=500ms, got %v", custom.Backoff())
	}
}

func TestComplete_PrimarySuccess(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name: "groq",
		resp: &providers.Response{Data: map[string]any{"sentiment": "positive"}, Text: `{"sentiment": "positive"}`},
	}
	fallback := &stubProvider{name: "ollama", priority: 1}

	r, err := New(entriesFor(primary, fallback), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := r.Complete(context.Background(), providers.NewRequest("hi"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Provider != "groq" {
		t.Errorf("Expected provider=groq, got %s", result.Provider)
	}
	if result.Data["sentiment"] != "positive" {
		t.Errorf("Expected data carried through, got %+v", result.Data)
	}
	if result.Latency < 0 {
		t.Errorf("Expected non-negative latency, got %v", result.Latency)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected fallback untouched, got %d calls", fallback.calls)
	}
}

func TestComplete_FailoverOnRateLimit(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name: "groq",
		err:  &providers.RateLimitedError{Provider: "groq", Status: 429, Message: "rate limit reached"},
	}
	fallback := &stubProvider{
		name:     "ollama",
		priority: 1,
		resp:     &providers.Response{Data: map[string]any{"ok": true}},
	}
	monitor := &recordingMonitor{}

	r, err := New(entriesFor(primary, fallback), 250*time.Millisecond, monitor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	slept := captureSleeps(r)

	result, err := r.Complete(context.Background(), providers.NewRequest("hi"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Provider != "ollama" {
		t.Errorf("Expected fallback to serve, got %s", result.Provider)
	}
	if len(*slept) != 1 || (*slept)[0] != 250*time.Millisecond {
		t.Errorf("Expected one 250ms backoff, got %v", *slept)
	}
	if len(monitor.failures) != 1 || monitor.failures[0] != "groq" {
		t.Errorf("Expected groq failure recorded, got %v", monitor.failures)
	}
	if len(monitor.successes) != 1 || monitor.successes[0] != "ollama" {
		t.Errorf("Expected ollama success recorded, got %v", monitor.successes)
	}
}

func TestComplete_NoBackoffOnRequestError(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name: "groq",
		err:  &providers.RequestError{Provider: "groq", Status: 400, Message: "bad payload"},
	}
	fallback := &stubProvider{
		name:     "ollama",
		priority: 1,
		resp:     &providers.Response{Text: "ok"},
	}

	r, err := New(entriesFor(primary, fallback), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	slept := captureSleeps(r)

	result, err := r.Complete(context.Background(), providers.NewRequest("hi"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Provider != "ollama" {
		t.Errorf("Expected fallback to serve, got %s", result.Provider)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no backoff for a rejected request, got %v", *slept)
	}
}

func TestComplete_Exhausted(t *testing.T) {
	t.Parallel()

	lastFailure := &providers.RequestError{Provider: "ollama", Status: 400, Message: "model missing"}
	providersList := entriesFor(
		&stubProvider{name: "groq", err: &providers.RateLimitedError{Provider: "groq", Status: 429, Message: "rate limit reached"}},
		&stubProvider{name: "ollama", priority: 1, err: lastFailure},
	)

	r, err := New(providersList, 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	captureSleeps(r)

	_, err = r.Complete(context.Background(), providers.NewRequest("hi"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected *ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, lastFailure) {
		t.Errorf("Expected last failure in chain, got: %v", err)
	}
	if !strings.Contains(err.Error(), "model missing") {
		t.Errorf("Expected last failure message surfaced, got: %v", err)
	}
}

func TestComplete_SkipsUnhealthy(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "groq", resp: &providers.Response{Text: "never"}}
	fallback := &stubProvider{name: "ollama", priority: 1, resp: &providers.Response{Text: "served"}}

	entries := []Entry{
		{Provider: primary, IsHealthy: func() bool { return false }},
		{Provider: fallback, IsHealthy: func() bool { return true }},
	}

	r, err := New(entries, 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := r.Complete(context.Background(), providers.NewRequest("hi"))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Provider != "ollama" {
		t.Errorf("Expected healthy fallback to serve, got %s", result.Provider)
	}
	if primary.calls != 0 {
		t.Errorf("Expected open-circuit provider untouched, got %d calls", primary.calls)
	}
}

func TestComplete_AllUnhealthy(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Provider: &stubProvider{name: "groq"}, IsHealthy: func() bool { return false }},
		{Provider: &stubProvider{name: "ollama", priority: 1}, IsHealthy: func() bool { return false }},
	}

	r, err := New(entries, 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = r.Complete(context.Background(), providers.NewRequest("hi"))
	if !errors.Is(err, ErrAllProvidersUnhealthy) {
		t.Errorf("Expected ErrAllProvidersUnhealthy, got %v", err)
	}
}

func TestComplete_CancellationAborts(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name: "groq",
		err:  fmt.Errorf("groq: %w", context.Canceled),
	}
	fallback := &stubProvider{name: "ollama", priority: 1, resp: &providers.Response{Text: "never"}}

	r, err := New(entriesFor(primary, fallback), 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = r.Complete(context.Background(), providers.NewRequest("hi"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation to propagate, got %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected walk aborted before fallback, got %d calls", fallback.calls)
	}
}

func TestComplete_ContextEndsDuringBackoff(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name: "groq",
		err:  &providers.RateLimitedError{Provider: "groq", Status: 429, Message: "rate limit reached"},
	}
	fallback := &stubProvider{name: "ollama", priority: 1, resp: &providers.Response{Text: "never"}}

	r, err := New(entriesFor(primary, fallback), time.Second, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.DeadlineExceeded
	}

	_, err = r.Complete(context.Background(), providers.NewRequest("hi"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error from backoff, got %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected no further dispatch after ended context, got %d calls", fallback.calls)
	}
}

func TestEntryHealthy(t *testing.T) {
	t.Parallel()

	t.Run("nil IsHealthy returns true", func(t *testing.T) {
		t.Parallel()

		e := Entry{IsHealthy: nil}
		if !e.Healthy() {
			t.Error("Healthy() should return true when IsHealthy is nil")
		}
	})

	t.Run("IsHealthy result passed through", func(t *testing.T) {
		t.Parallel()

		e := Entry{IsHealthy: func() bool { return false }}
		if e.Healthy() {
			t.Error("Healthy() should return false when IsHealthy returns false")
		}
	})
}

func TestExhaustedErrorMessage(t *testing.T) {
	t.Parallel()

	withCause := &ExhaustedError{Attempts: 3, LastErr: errors.New("groq: rate limit reached (status 429)")}
	want := "router: all 3 providers exhausted, last error: groq: rate limit reached (status 429)"
	if withCause.Error() != want {
		t.Errorf("Expected %q, got %q", want, withCause.Error())
	}

	bare := &ExhaustedError{Attempts: 1}
	if bare.Error() != "router: all 1 providers exhausted" {
		t.Errorf("Expected bare message, got %q", bare.Error())
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected nil for elapsed sleep, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected canceled error, got %v", err)
	}
}
