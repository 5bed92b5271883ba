// internal/models/advisory.go
package models

import (
	"encoding/json"
	"time"
)

// AdvisoryRequest carries the caller-supplied parameters for one advisory
// invocation. It lives for exactly one request and is never persisted.
type AdvisoryRequest struct {
	Subject           string
	Region            string
	Lat               *float64
	Lon               *float64
	FreshnessOverride bool
}

// AdvisoryResult is the normalized (or raw) payload produced by one model
// invocation. Immutable once created.
type AdvisoryResult struct {
	Subject   string      `json:"subject"`
	Region    string      `json:"region"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// CacheEntry is an AdvisoryResult persisted in the datastore, keyed by
// (function, subject, region). Rows are append-only; the most recent row
// wins at read time.
type CacheEntry struct {
	Function  string          `json:"function"`
	Subject   string          `json:"subject"`
	Region    string          `json:"region"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Age returns how old the entry is relative to now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Fresh reports whether the entry is still inside the freshness window.
// Stale entries are ignored, never deleted.
func (e *CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return e.Age(now) < window
}
