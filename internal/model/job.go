// internal/model/job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusSuccess    JobStatus = "SUCCESS"
	JobStatusFailed     JobStatus = "FAILED"
)

// PrinterMode is an out-of-band printer state command
type PrinterMode string

const (
	PrinterModeOnline  PrinterMode = "online"
	PrinterModeOffline PrinterMode = "offline"
	PrinterModeReset   PrinterMode = "reset"
)

// Line is one line of a receipt and its formatting
type Line struct {
	Text        string `json:"text"`
	Justify     string `json:"justify,omitempty"` // left, center, right; unchanged when empty
	Bold        bool   `json:"bold,omitempty"`
	DoubleWidth bool   `json:"double_width,omitempty"`
	Inverse     bool   `json:"inverse,omitempty"`
	UpsideDown  bool   `json:"upside_down,omitempty"`
	Feed        int    `json:"feed,omitempty"` // extra linefeeds after the line
}

// Job is an ordered list of lines printed without interruption
type Job struct {
	Lines []Line `json:"lines"`
}

// JobRecord tracks a submitted job
type JobRecord struct {
	ID            uuid.UUID  `json:"id"`
	Status        JobStatus  `json:"status"`
	LineCount     int        `json:"line_count"`
	FailedCommand string     `json:"failed_command,omitempty"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DurationMs    *int64     `json:"duration_ms,omitempty"`
}

// IsCompleted checks if job is completed (success or failed)
func (j *JobRecord) IsCompleted() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}
