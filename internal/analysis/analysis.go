// Package analysis implements the three lead-intelligence services the API
// exposes: sentiment scoring for inbound email, deliverability risk for
// addresses, and website monitoring briefs.
//
// Each service follows the same shape: collect deterministic diagnostics
// locally, consult the response cache, and only then dispatch a prompt
// through the provider router. Model output is normalized into the flat
// maps the frontend consumes before it is cached, so hits and fresh
// results are indistinguishable to callers.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadlens/leadlens/internal/providers"
	"github.com/leadlens/leadlens/internal/router"
)

// CacheProvider is the provider label reported when a result was served
// from the response cache without touching any vendor.
const CacheProvider = "cache"

// Cache namespaces, one per analysis type. They prefix every response
// cache key so the three services never collide.
const (
	TypeSentiment       = "sentiment_ai"
	TypeEmailValidation = "email_validation_ai"
	TypeWebsite         = "website_monitoring_ai"
)

// Completer dispatches one completion request across the configured
// providers.
type Completer interface {
	Complete(ctx context.Context, req providers.Request) (*router.Result, error)
}

var _ Completer = (*router.Router)(nil)

// Result is one finished analysis.
type Result struct {
	// Data is the normalized analysis map, ready for JSON encoding.
	Data map[string]any

	// Provider names the vendor that served the request, or
	// CacheProvider for a cache hit.
	Provider string

	// Latency is the time the winning provider call took. Zero for
	// cache hits.
	Latency time.Duration
}

// pick returns the value under key, or fallback when the key is absent.
// A key present with a nil value wins over the fallback, matching the
// lenient read the frontend formatters need.
func pick(m map[string]any, key string, fallback any) any {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

// stringOr returns the string under key, or fallback when the key is
// missing or holds a non-string.
func stringOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

// prettyJSON renders diagnostics for prompt embedding. Map keys marshal
// in sorted order, so equal diagnostics produce equal prompts.
func prettyJSON(v map[string]any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
