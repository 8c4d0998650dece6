package ingest

import (
	"errors"
	"time"
)

var (
	// ErrExternalSource is returned when the volume source cannot be read.
	ErrExternalSource = errors.New("external source unavailable")
	ErrRunNotFound    = errors.New("import run not found")
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Run is the bookkeeping row of one import.
type Run struct {
	ID         string     `json:"id"`
	Author     string     `json:"author"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"` // RUNNING, COMPLETED, FAILED
	Fetched    int        `json:"fetched"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
}

// Result summarizes an import. Imported counts every fetched volume,
// unchanged matches and skips included.
type Result struct {
	Imported int    `json:"imported"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	RunID    string `json:"run_id"`
}

// Outcome is what happened to a single record.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeCreated
	OutcomeUpdated
	// OutcomeUnchanged is a match whose stored fields already agree.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "skipped"
	}
}
