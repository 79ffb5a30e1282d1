// Package jobs is the background queue for asynchronous exports. Jobs live in
// the same SQLite database as the accounts they export; permanently failed
// jobs move to a dead-letter table.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job represents one queued unit of work.
type Job struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

// Job statuses.
const (
	StatusQueued = "queued"
	StatusRetry  = "retry"
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Export job types and their payload.
const (
	TypeExportCSV  = "export.csv"
	TypeExportJSON = "export.json"
)

type ExportPayload struct {
	Path string `json:"path"`
}

// Handler is the function that processes a job.
type Handler func(ctx context.Context, j *Job) error

// ErrMaxAttempts indicates the job reached max attempts.
var ErrMaxAttempts = errors.New("max attempts reached")

// BackoffDuration returns exponential backoff duration for attempt n.
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
