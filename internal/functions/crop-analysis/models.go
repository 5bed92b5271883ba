// internal/functions/crop-analysis/models.go
package cropanalysis

import (
	"strconv"
	"strings"

	"smartbharat-functions/internal/models"
)

type Input struct {
	Image  string   `json:"image"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	UserID string   `json:"userId"`
}

type Output struct {
	Success       bool                  `json:"success"`
	Analysis      interface{}           `json:"analysis"`
	Notifications []models.Notification `json:"notifications"`
	Confidence    int                   `json:"confidence"`
}

// Analysis wraps the loosely-typed payload the vision model returns. The
// accessors tolerate missing keys and the model's habit of quoting numbers.
type Analysis map[string]interface{}

// fallbackAnalysis is returned when the model's output carried no parseable
// JSON. The raw text survives in recommendations.
func fallbackAnalysis(text string) Analysis {
	return Analysis{
		"crop_type":         "Analysis provided",
		"health_status":     "analyzed",
		"diseases_detected": []interface{}{},
		"pests_detected":    []interface{}{},
		"growth_stage":      "assessed",
		"overall_score":     "70",
		"recommendations":   []interface{}{text},
		"immediate_actions": []interface{}{"Review analysis"},
		"yield_prediction":  "Assessment provided",
		"confidence_level":  "75",
	}
}

func (a Analysis) str(key string) string {
	v, _ := a[key].(string)
	return v
}

func (a Analysis) strings(key string) []string {
	list, ok := a[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a Analysis) HealthStatus() string   { return a.str("health_status") }
func (a Analysis) Diseases() []string     { return a.strings("diseases_detected") }
func (a Analysis) Pests() []string        { return a.strings("pests_detected") }
func (a Analysis) Recommendations() []string { return a.strings("recommendations") }
func (a Analysis) ImmediateActions() []string { return a.strings("immediate_actions") }

// Confidence parses confidence_level whether the model sent "75" or 75;
// anything unusable defaults to 75.
func (a Analysis) Confidence() int {
	switch v := a["confidence_level"].(type) {
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(v, "%"))); err == nil {
			return n
		}
	case float64:
		return int(v)
	}
	return 75
}
