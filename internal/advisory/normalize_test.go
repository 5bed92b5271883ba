// internal/advisory/normalize_test.go
package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDirectObject(t *testing.T) {
	value, ok := Normalize(`{"trend":"rising","confidence":80}`)

	assert.True(t, ok)
	m := value.(map[string]interface{})
	assert.Equal(t, "rising", m["trend"])
	assert.Equal(t, float64(80), m["confidence"])
}

func TestNormalizeFencedJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json fence", "```json\n{\"trend\":\"rising\"}\n```"},
		{"bare fence", "```\n{\"trend\":\"rising\"}\n```"},
		{"uppercase fence", "```JSON\n{\"trend\":\"rising\"}\n```"},
		{"fence with trailing spaces", "```json\n{\"trend\":\"rising\"}\n```   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := Normalize(tt.text)
			assert.True(t, ok)
			assert.Equal(t, "rising", value.(map[string]interface{})["trend"])
		})
	}
}

func TestNormalizeEmbeddedObject(t *testing.T) {
	value, ok := Normalize(`Here is the advisory you asked for: {"trend":"falling"} Hope it helps!`)

	assert.True(t, ok)
	assert.Equal(t, "falling", value.(map[string]interface{})["trend"])
}

func TestNormalizeBareScalars(t *testing.T) {
	value, ok := Normalize(`42`)
	assert.True(t, ok)
	assert.Equal(t, float64(42), value)

	value, ok = Normalize(`"just a string"`)
	assert.True(t, ok)
	assert.Equal(t, "just a string", value)
}

func TestNormalizeFallbackWrapsRawText(t *testing.T) {
	text := "Prices should remain stable through the harvest season."
	value, ok := Normalize(text)

	assert.False(t, ok)
	assert.Equal(t, map[string]interface{}{"raw": text}, value)
}

func TestNormalizeEmptyInput(t *testing.T) {
	value, ok := Normalize("")

	assert.False(t, ok)
	assert.Equal(t, map[string]interface{}{"raw": ""}, value)
}

func TestNormalizeIdempotentOnParsedOutput(t *testing.T) {
	// Feeding already-clean JSON through again yields the same value.
	first, ok := Normalize("```json\n{\"a\":1}\n```")
	assert.True(t, ok)

	second, ok := Normalize(`{"a":1}`)
	assert.True(t, ok)
	assert.Equal(t, first, second)
}

func TestNormalizeBrokenEmbeddedJSON(t *testing.T) {
	value, ok := Normalize(`prose {"trend": "rising" prose`)

	assert.False(t, ok)
	assert.Contains(t, value.(map[string]interface{}), "raw")
}
