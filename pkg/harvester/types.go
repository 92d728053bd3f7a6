// Package harvester drives a single-domain content harvest: it pops URLs
// from the frontier, renders them, extracts records and links, and keeps
// the dataset and checkpoint on disk in step.
package harvester

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

// ErrAlreadyRunning is returned by Run when the harvester has already
// been started.
var ErrAlreadyRunning = errors.New("harvester has already been started")

// Renderer fetches a URL and returns its rendered markup.
type Renderer interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// StopReason says why a run ended.
type StopReason string

// Stop reasons.
const (
	StopCompleted   StopReason = "completed"   // frontier exhausted
	StopMaxPages    StopReason = "max_pages"   // per-run page cap reached
	StopInterrupted StopReason = "interrupted" // context cancelled
	StopError       StopReason = "error"
)

// RunSummary describes a finished run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Domain     string        `json:"domain"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	StopReason StopReason    `json:"stop_reason"`

	Stats          state.RunStats `json:"stats"`
	FailuresByType map[string]int `json:"failures_by_type"`
	RecordsByType  map[string]int `json:"records_by_type"`

	// Pending is the queue length left for the next run.
	Pending int `json:"pending"`
	// ProcessedTotal counts every URL in the checkpoint lineage.
	ProcessedTotal int `json:"processed_total"`

	Metrics *metrics.Snapshot `json:"metrics,omitempty"`
}

// ContentTypes returns the record content types seen, sorted.
func (s *RunSummary) ContentTypes() []string {
	types := make([]string, 0, len(s.RecordsByType))
	for t := range s.RecordsByType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Fields flattens the summary for structured logging.
func (s *RunSummary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"run_id":           s.RunID,
		"domain":           s.Domain,
		"stop_reason":      string(s.StopReason),
		"duration":         s.Duration.String(),
		"pages_fetched":    s.Stats.PagesFetched,
		"fetch_failures":   s.Stats.FetchFailures,
		"skipped_urls":     s.Stats.SkippedURLs,
		"records_written":  s.Stats.RecordsWritten,
		"flushes":          s.Stats.Flushes,
		"failures_by_type": s.FailuresByType,
		"records_by_type":  s.RecordsByType,
		"pending":          s.Pending,
		"processed_total":  s.ProcessedTotal,
	}
}
