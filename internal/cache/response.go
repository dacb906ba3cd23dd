package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

// DefaultTTL is how long analysis responses stay valid.
const DefaultTTL = 2 * time.Hour

// envelope wraps a cached analysis result with its creation time.
// CreatedAt is UTC milliseconds. Age is checked on every read so a
// stale entry is never served even when the backend keeps it around.
type envelope struct {
	CreatedAt int64          `json:"created_at"`
	Result    map[string]any `json:"result"`
}

// ResponseCache stores analysis results keyed by analysis type and
// request payload. Keys are content-addressed: the same payload always
// maps to the same key, so repeated requests hit the cache.
//
// Every failure path degrades to a miss. A broken cache slows the
// service down; it never breaks it.
type ResponseCache struct {
	backend  Cache
	ttl      time.Duration
	disabled func() bool
	log      zerolog.Logger
	now      func() time.Time
}

// NewResponseCache wraps a Cache backend with response semantics.
// A ttl <= 0 falls back to DefaultTTL. The disabled func is consulted
// on every operation; nil means caching is always on.
func NewResponseCache(backend Cache, ttl time.Duration, disabled func() bool) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if disabled == nil {
		disabled = func() bool { return false }
	}
	return &ResponseCache{
		backend:  backend,
		ttl:      ttl,
		disabled: disabled,
		log:      logger().With().Str("layer", "response").Logger(),
		now:      time.Now,
	}
}

// TTL returns the configured time-to-live for cached responses.
func (rc *ResponseCache) TTL() time.Duration {
	return rc.ttl
}

// Key derives the cache key for an analysis request.
// The payload is serialized to canonical JSON (map keys are sorted)
// and hashed, so key derivation is stable across processes.
func (rc *ResponseCache) Key(analysisType string, payload map[string]any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cache: marshal payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return analysisType + "_" + hex.EncodeToString(sum[:]), nil
}

// Lookup returns the cached result for a request, or None on a miss.
// Expired and undecodable entries are deleted and reported as misses.
// Backend errors are logged and reported as misses.
func (rc *ResponseCache) Lookup(ctx context.Context, analysisType string, payload map[string]any) mo.Option[map[string]any] {
	if rc.disabled() {
		rc.log.Debug().Str("analysis_type", analysisType).Msg("cache disabled, skipping lookup")
		return mo.None[map[string]any]()
	}

	key, err := rc.Key(analysisType, payload)
	if err != nil {
		rc.log.Warn().Err(err).Str("analysis_type", analysisType).Msg("cache key derivation failed")
		return mo.None[map[string]any]()
	}

	data, err := rc.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			rc.log.Warn().Err(err).Str("analysis_type", analysisType).Msg("cache lookup failed")
		}
		return mo.None[map[string]any]()
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		rc.log.Warn().
			Err(fmt.Errorf("%w: %w", ErrSerializationFailed, err)).
			Str("analysis_type", analysisType).
			Msg("cache entry undecodable, dropping")
		rc.drop(ctx, key)
		return mo.None[map[string]any]()
	}

	age := rc.now().UTC().Sub(time.UnixMilli(env.CreatedAt).UTC())
	if age > rc.ttl {
		rc.log.Debug().
			Str("analysis_type", analysisType).
			Dur("age", age).
			Msg("cache entry expired, dropping")
		rc.drop(ctx, key)
		return mo.None[map[string]any]()
	}

	rc.log.Debug().
		Str("analysis_type", analysisType).
		Dur("age", age).
		Msg("cache hit")
	return mo.Some(env.Result)
}

// Store caches an analysis result. Failures are logged, never returned:
// a response that could not be cached is still a valid response.
func (rc *ResponseCache) Store(ctx context.Context, analysisType string, payload, result map[string]any) {
	if rc.disabled() {
		rc.log.Debug().Str("analysis_type", analysisType).Msg("cache disabled, skipping store")
		return
	}

	key, err := rc.Key(analysisType, payload)
	if err != nil {
		rc.log.Warn().Err(err).Str("analysis_type", analysisType).Msg("cache key derivation failed")
		return
	}

	env := envelope{
		CreatedAt: toMillis(rc.now()),
		Result:    result,
	}
	data, err := json.Marshal(env)
	if err != nil {
		rc.log.Warn().
			Err(fmt.Errorf("%w: %w", ErrSerializationFailed, err)).
			Str("analysis_type", analysisType).
			Msg("cache store failed")
		return
	}

	if err := rc.backend.SetWithTTL(ctx, key, data, rc.ttl); err != nil {
		rc.log.Warn().Err(err).Str("analysis_type", analysisType).Msg("cache store failed")
		return
	}

	rc.log.Debug().
		Str("analysis_type", analysisType).
		Int("size", len(data)).
		Msg("response cached")
}

// drop removes a key, ignoring failures. The entry will be overwritten
// or expired by the backend eventually anyway.
func (rc *ResponseCache) drop(ctx context.Context, key string) {
	if err := rc.backend.Delete(ctx, key); err != nil {
		rc.log.Debug().Err(err).Msg("cache drop failed")
	}
}
