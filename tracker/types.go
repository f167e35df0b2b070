package tracker

import (
	"time"

	"github.com/arabah/arabah/logging"
	"github.com/arabah/arabah/request"
)

// Status is the latest known state of one operation.
type Status struct {
	request.Snapshot
	// StartedAt is when the operation last entered Loading. Nil if it never has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// UpdatedAt is when the state last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Outcome records one terminal state.
type Outcome struct {
	ID        string                `json:"id"`
	Operation string                `json:"operation"`
	State     request.StateKind     `json:"state"`
	Error     *request.NetworkError `json:"error,omitempty"`
	Attempt   int                   `json:"attempt"`
	StartedAt *time.Time            `json:"started_at,omitempty"`
	EndedAt   time.Time             `json:"ended_at"`
	// Logs holds the records the operation logged since its previous outcome.
	Logs []logging.LogEntry `json:"logs,omitempty"`
}

// Duration returns how long the attempt was Loading, or zero for outcomes that never
// reached the transport.
func (o Outcome) Duration() time.Duration {
	if o.StartedAt == nil {
		return 0
	}
	return o.EndedAt.Sub(*o.StartedAt)
}

// HistoryStore manages persistence of outcomes, most recent first.
type HistoryStore interface {
	// History returns the stored outcomes, most recent first.
	History() []Outcome
	// Save persists an outcome.
	Save(Outcome) error
}
