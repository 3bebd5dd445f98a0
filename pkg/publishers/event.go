package publishers

import (
	"time"

	"github.com/samvad-hq/postman-echo-client/internal/domain"
)

// Event represents the payload published downstream when a probe changes state.
type Event struct {
	RunID       string             `json:"run_id"`
	ProbeID     string             `json:"probe_id"`
	Result      domain.ProbeResult `json:"result"`
	PublishedAt time.Time          `json:"published_at"`
}

// NewEvent constructs an Event for the given probe result.
func NewEvent(result domain.ProbeResult) Event {
	return Event{
		RunID:       result.RunID,
		ProbeID:     result.ProbeID,
		Result:      result,
		PublishedAt: time.Now().UTC(),
	}
}
