// internal/models/notification.go
package models

import "time"

// Notification priorities, lowest to highest.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is appended by the weather and crop-analysis routines.
// The advisory pipeline never reads these back.
type Notification struct {
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Priority         string    `json:"priority"`
	WeatherCondition string    `json:"weather_condition,omitempty"`
	UserID           string    `json:"user_id,omitempty"`
	Lat              *float64  `json:"location_lat,omitempty"`
	Lon              *float64  `json:"location_lon,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// PriorityAtLeast reports whether p meets the given threshold.
func PriorityAtLeast(p, threshold string) bool {
	rank := map[string]int{PriorityLow: 0, PriorityMedium: 1, PriorityHigh: 2}
	return rank[p] >= rank[threshold]
}
