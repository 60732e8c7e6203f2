package history

import "time"

// Status is the externally visible result of one render attempt.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusFailed  Status = "failed"
)

// Attempt is one row of the render log.
type Attempt struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Status    Status        `json:"status"`
	// FailureKind names why a failed attempt failed; empty on success.
	FailureKind string   `json:"failure_kind,omitempty"`
	ExitCode    *int     `json:"exit_code,omitempty"`
	Line        *string  `json:"line"`
	Stderr      string   `json:"stderr,omitempty"`
	Command     []string `json:"command"`
	PayloadHash string   `json:"payload_hash,omitempty"`
}
