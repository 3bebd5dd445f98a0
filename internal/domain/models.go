package domain

import (
	"strconv"
	"time"
)

// ProbeResult is the outcome of one probe against the echo service.
type ProbeResult struct {
	RunID      string    `json:"run_id"`
	ProbeID    string    `json:"probe_id"`
	Type       string    `json:"type"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Fingerprint summarises the parts of a result that define a state change.
// Timing and run identity are left out.
func (r ProbeResult) Fingerprint() string {
	state := "fail"
	if r.OK {
		state = "ok"
	}
	return state + ":" + strconv.Itoa(r.StatusCode)
}
