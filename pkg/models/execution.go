package models

import "time"

// ExecutionStatus tracks a node (or whole run) through its lifecycle.
// A node transitions pending -> running -> {completed|error} and never
// regresses; nodes skipped by cancellation go pending -> cancelled.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusError     ExecutionStatus = "error"
	StatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is a terminal one.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// ExecutionRecord is the per-node entry of one run. Exactly one terminal
// record exists per node per run.
type ExecutionRecord struct {
	NodeID     string          `json:"node_id"`
	Status     ExecutionStatus `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Result     any             `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Duration returns the wall time between start and finish, or zero while
// the node has not finished.
func (r ExecutionRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// Execution is the persisted aggregate of one workflow run.
type Execution struct {
	ID         string            `json:"id"`
	WorkflowID string            `json:"workflow_id"`
	Status     ExecutionStatus   `json:"status"`
	Records    []ExecutionRecord `json:"records"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}
