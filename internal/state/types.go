package state

import (
	"time"
)

// RunStats contains counters for a harvest run.
type RunStats struct {
	PagesFetched   int `json:"pages_fetched"`
	FetchFailures  int `json:"fetch_failures"`
	SkippedURLs    int `json:"skipped_urls"`
	RecordsWritten int `json:"records_written"`
	Flushes        int `json:"flushes"`
}

// Add returns the sum of two stat sets.
func (s RunStats) Add(other RunStats) RunStats {
	return RunStats{
		PagesFetched:   s.PagesFetched + other.PagesFetched,
		FetchFailures:  s.FetchFailures + other.FetchFailures,
		SkippedURLs:    s.SkippedURLs + other.SkippedURLs,
		RecordsWritten: s.RecordsWritten + other.RecordsWritten,
		Flushes:        s.Flushes + other.Flushes,
	}
}

// RunState is the resumable snapshot saved alongside the checkpoint log.
type RunState struct {
	RunID     string    `json:"run_id"`
	Domain    string    `json:"domain"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Pending holds the raw URLs still queued, head first.
	Pending []string `json:"pending"`
	// Stats covers the run identified by RunID.
	Stats RunStats `json:"stats"`
	// Totals accumulates stats over every run against the same state file.
	Totals RunStats `json:"totals"`
}
