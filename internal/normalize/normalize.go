// Package normalize coerces raw model output into JSON objects.
//
// Models asked for JSON still wrap it in prose or markdown fences often
// enough that every response runs the same ladder of strategies, from a
// strict parse down to an outermost-brace scan. The ladder never fails:
// text that no strategy can decode degrades to a tagged fallback object,
// so callers always receive a usable map.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// strategy attempts to decode one shape of model output. It reports false
// when the shape is absent or the candidate is not a JSON object.
type strategy func(text string) (map[string]any, bool)

var (
	jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFence  = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	// Outermost object with one level of nesting. Deeper nesting inside a
	// prose wrapper is rare enough that the fallback handles it.
	braced = regexp.MustCompile(`(?s)(\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\})`)
)

var strategies = []strategy{direct, fencedJSON, fencedAny, outerBraces}

// JSON extracts a JSON object from raw model output. It never fails: empty
// input yields {"error": "Empty response from model"} and undecodable input
// yields {"response": raw, "error": "Could not parse as JSON"}.
func JSON(raw string) map[string]any {
	text := strings.TrimSpace(raw)
	if text == "" {
		return map[string]any{"error": "Empty response from model"}
	}

	for _, try := range strategies {
		if obj, ok := try(text); ok {
			return obj
		}
	}

	return map[string]any{
		"response": raw,
		"error":    "Could not parse as JSON",
	}
}

func direct(text string) (map[string]any, bool) {
	return decodeObject(text)
}

func fencedJSON(text string) (map[string]any, bool) {
	return decodeMatch(jsonFence, text)
}

func fencedAny(text string) (map[string]any, bool) {
	return decodeMatch(anyFence, text)
}

func outerBraces(text string) (map[string]any, bool) {
	return decodeMatch(braced, text)
}

func decodeMatch(re *regexp.Regexp, text string) (map[string]any, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return decodeObject(m[1])
}

// decodeObject parses candidate into a map. gjson gates the full decode so
// garbage fails fast; unmarshalling into a map rejects non-object values.
// The nil check rejects the literal "null", which unmarshals into a nil map.
func decodeObject(candidate string) (map[string]any, bool) {
	if !gjson.Valid(candidate) {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
