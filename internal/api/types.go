package api

import (
	"encoding/json"
	"time"
)

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Enabled       bool   `json:"enabled"`
	InFlight      bool   `json:"in_flight"`
	LastEventID   int64  `json:"last_event_id"`
}

// SessionPayload is the body of GET and PUT /v1/session. It mirrors the
// renderer input minus the branch, which is resolved per attempt.
type SessionPayload struct {
	Model                   string          `json:"model"`
	ModelProvider           string          `json:"model_provider"`
	Cwd                     string          `json:"cwd"`
	TaskRunning             bool            `json:"task_running"`
	ReviewMode              bool            `json:"review_mode"`
	ContextWindowPercent    *int64          `json:"context_window_percent"`
	ContextWindowUsedTokens *int64          `json:"context_window_used_tokens"`
	TokenUsage              json.RawMessage `json:"token_usage,omitempty"`
}

// AttemptResponse is one row of GET /v1/attempts.
type AttemptResponse struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
	Status      string    `json:"status"`
	FailureKind string    `json:"failure_kind,omitempty"`
	ExitCode    *int      `json:"exit_code,omitempty"`
	Line        *string   `json:"line"`
	Stderr      string    `json:"stderr,omitempty"`
	Command     []string  `json:"command"`
	PayloadHash string    `json:"payload_hash,omitempty"`
}

// AttemptsResponse is returned by GET /v1/attempts.
type AttemptsResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
}
