package gorecord

import (
	"time"
)

// QueryRecord is one entry of the diagnostics query log.
type QueryRecord struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Op      string         `json:"op"` // SELECT, INSERT, UPDATE, DELETE, ...
	SQL     string         `json:"sql"`
	Params  map[string]any `json:"params,omitempty"`
	Elapsed time.Duration  `json:"elapsed"`
	Memory  int64          `json:"memory"` // heap delta in bytes across the statement
	At      time.Time      `json:"at"`
	Err     string         `json:"error,omitempty"`
}

// Slow reports whether the statement took at least threshold.
func (r QueryRecord) Slow(threshold time.Duration) bool {
	return threshold > 0 && r.Elapsed >= threshold
}
