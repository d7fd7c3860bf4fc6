package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunCounts holds the per-run counters the driver reports.
type RunCounts struct {
	Fetched     int `json:"fetched"`
	FetchFailed int `json:"fetch_failed"`
	Processed   int `json:"processed"`
	Classified  int `json:"classified"`
	Tracked     int `json:"tracked"`
	Flushed     int `json:"flushed"`
}

// Add sums two sets of counters, for full-sequence runs.
func (c RunCounts) Add(other RunCounts) RunCounts {
	return RunCounts{
		Fetched:     c.Fetched + other.Fetched,
		FetchFailed: c.FetchFailed + other.FetchFailed,
		Processed:   c.Processed + other.Processed,
		Classified:  c.Classified + other.Classified,
		Tracked:     c.Tracked + other.Tracked,
		Flushed:     c.Flushed + other.Flushed,
	}
}

// Run is one recorded invocation of a pipeline stage (or the full driver).
type Run struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	Status     RunStatus `json:"status"`
	Counts     RunCounts `json:"counts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
