package domain

import "time"

// Progress is a snapshot emitted after every processed item. Not persisted;
// recomputed each run.
type Progress struct {
	RunID              string        `json:"run_id"`
	Percentage         int           `json:"percentage"`
	ProcessedCount     int           `json:"processed_count"`
	TotalCount         int           `json:"total_count"`
	CurrentStep        string        `json:"current_step"`
	EstimatedRemaining time.Duration `json:"estimated_remaining,omitempty"`
	HasEstimate        bool          `json:"has_estimate"`
}

// Summary is delivered to the observer once a run reaches a terminal state.
// Warning texts are safe to display as-is; no stack traces.
type Summary struct {
	RunID     string        `json:"run_id"`
	Success   bool          `json:"success"`
	Warnings  []string      `json:"warnings,omitempty"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}
