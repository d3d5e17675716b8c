package models

import (
	"time"
)

// RunStatus represents the state of a scrape run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// SiteFailure records a site that produced no observation in a run.
type SiteFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Run describes one pass over the site registry.
type Run struct {
	Status       RunStatus     `json:"status"`
	Observations []Observation `json:"observations"`
	Failures     []SiteFailure `json:"failures,omitempty"`
	Cheapest     *Observation  `json:"cheapest,omitempty"`
	Difference   float64       `json:"difference"`
	AlertSent    bool          `json:"alert_sent"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewRun creates a run in the running state
func NewRun() *Run {
	return &Run{
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete marks the run as completed
func (r *Run) Complete() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *Run) Fail(err error) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.Error = err.Error()
	r.CompletedAt = &now
}

// Duration returns how long the run took, or has been running
func (r *Run) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
