// internal/advisory/normalize.go
package advisory

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The model gives no output-format guarantee, so normalization is an ordered
// chain of attempts over the completion text. Each attempt is pure: it either
// yields a value or passes. The final fallback wraps the original text so
// callers always receive something renderable.
var attempts = []func(string) (interface{}, bool){
	parseDirect,
	parseFenced,
	parseEmbedded,
}

var fenceOpen = regexp.MustCompile("(?i)^```(json)?\\s*")
var fenceClose = regexp.MustCompile("```\\s*$")

// Normalize coerces free-text model output into a structured value.
// The second return value is false when the raw fallback was used.
func Normalize(text string) (interface{}, bool) {
	for _, attempt := range attempts {
		if value, ok := attempt(text); ok {
			return value, true
		}
	}
	return map[string]interface{}{"raw": text}, false
}

// parseDirect accepts any valid JSON value, including bare strings and
// numbers. No shape checking happens here.
func parseDirect(text string) (interface{}, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, false
	}
	return value, true
}

// parseFenced strips leading/trailing markdown code fences and re-parses.
func parseFenced(text string) (interface{}, bool) {
	trimmed := strings.TrimSpace(text)
	cleaned := fenceOpen.ReplaceAllString(trimmed, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == trimmed {
		return nil, false
	}
	return parseDirect(cleaned)
}

// parseEmbedded extracts the substring between the first '{' and the last '}'
// and parses it, for completions that wrap the object in prose.
func parseEmbedded(text string) (interface{}, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	return parseDirect(text[start : end+1])
}
