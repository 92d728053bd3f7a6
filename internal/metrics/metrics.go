// Package metrics collects counters for a harvest run.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates metrics.
type Collector struct {
	// Counters
	fetchesTotal    atomic.Int64
	failuresTotal   atomic.Int64
	pagesDiscovered atomic.Int64
	skippedTotal    atomic.Int64
	recordsTotal    atomic.Int64
	flushesTotal    atomic.Int64
	bytesTotal      atomic.Int64

	// Rate tracking
	fetchesInWindow atomic.Int64
	windowStart     atomic.Int64

	// Fetch time tracking
	fetchTimesSum atomic.Int64
	fetchTimesNum atomic.Int64

	// Gauges
	queueDepth atomic.Int64

	// Histogram buckets for fetch times in ms
	fetchTimeBuckets [10]atomic.Int64 // <10, <50, <100, <250, <500, <1000, <2500, <5000, <10000, >=10000

	// Failure breakdown by error type
	failureCounts map[string]*atomic.Int64
	failureMu     sync.RWMutex

	// Record breakdown by content type
	recordCounts map[string]*atomic.Int64
	recordMu     sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	now := time.Now()
	c := &Collector{
		failureCounts: make(map[string]*atomic.Int64),
		recordCounts:  make(map[string]*atomic.Int64),
		startTime:     now,
	}
	c.windowStart.Store(now.UnixNano())
	return c
}

// RecordFetch records a successful page fetch.
func (c *Collector) RecordFetch(d time.Duration, bytes int) {
	c.fetchesTotal.Add(1)
	c.fetchesInWindow.Add(1)
	c.bytesTotal.Add(int64(bytes))

	ms := d.Milliseconds()
	c.fetchTimesSum.Add(ms)
	c.fetchTimesNum.Add(1)
	c.fetchTimeBuckets[bucketFor(ms)].Add(1)
}

// RecordFailure records a failed fetch.
func (c *Collector) RecordFailure(errorType string) {
	c.failuresTotal.Add(1)
	increment(&c.failureMu, c.failureCounts, errorType)
}

// RecordRecord records an extracted record of the given content type.
func (c *Collector) RecordRecord(contentType string) {
	c.recordsTotal.Add(1)
	increment(&c.recordMu, c.recordCounts, contentType)
}

// RecordDiscovered adds n newly enqueued links.
func (c *Collector) RecordDiscovered(n int) {
	c.pagesDiscovered.Add(int64(n))
}

// RecordSkipped counts a URL dropped without fetching.
func (c *Collector) RecordSkipped() {
	c.skippedTotal.Add(1)
}

// RecordFlush counts a batch flush.
func (c *Collector) RecordFlush() {
	c.flushesTotal.Add(1)
}

// SetQueueDepth sets the current queue depth.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Store(int64(depth))
}

func increment(mu *sync.RWMutex, counts map[string]*atomic.Int64, key string) {
	mu.RLock()
	counter := counts[key]
	mu.RUnlock()

	if counter == nil {
		mu.Lock()
		if counts[key] == nil {
			counts[key] = &atomic.Int64{}
		}
		counter = counts[key]
		mu.Unlock()
	}
	counter.Add(1)
}

func bucketFor(ms int64) int {
	switch {
	case ms < 10:
		return 0
	case ms < 50:
		return 1
	case ms < 100:
		return 2
	case ms < 250:
		return 3
	case ms < 500:
		return 4
	case ms < 1000:
		return 5
	case ms < 2500:
		return 6
	case ms < 5000:
		return 7
	case ms < 10000:
		return 8
	default:
		return 9
	}
}

// FetchesPerMinute returns the fetch rate over the current window.
func (c *Collector) FetchesPerMinute() float64 {
	const window = time.Minute
	now := time.Now().UnixNano()
	start := c.windowStart.Load()

	elapsed := time.Duration(now - start)
	if elapsed >= window {
		if c.windowStart.CompareAndSwap(start, now) {
			c.fetchesInWindow.Store(0)
		}
		return 0
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(c.fetchesInWindow.Load()) / elapsed.Minutes()
}

// AverageFetchTime returns the mean duration of successful fetches.
func (c *Collector) AverageFetchTime() time.Duration {
	num := c.fetchTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(c.fetchTimesSum.Load()/num) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:        time.Now(),
		Uptime:           time.Since(c.startTime),
		FetchesTotal:     c.fetchesTotal.Load(),
		FailuresTotal:    c.failuresTotal.Load(),
		PagesDiscovered:  c.pagesDiscovered.Load(),
		SkippedTotal:     c.skippedTotal.Load(),
		RecordsTotal:     c.recordsTotal.Load(),
		FlushesTotal:     c.flushesTotal.Load(),
		BytesTotal:       c.bytesTotal.Load(),
		QueueDepth:       c.queueDepth.Load(),
		FetchesPerMinute: c.FetchesPerMinute(),
		AverageFetchTime: c.AverageFetchTime(),
		FailureCounts:    make(map[string]int64),
		RecordCounts:     make(map[string]int64),
		FetchTimeHist:    make([]int64, len(c.fetchTimeBuckets)),
	}

	c.failureMu.RLock()
	for k, v := range c.failureCounts {
		s.FailureCounts[k] = v.Load()
	}
	c.failureMu.RUnlock()

	c.recordMu.RLock()
	for k, v := range c.recordCounts {
		s.RecordCounts[k] = v.Load()
	}
	c.recordMu.RUnlock()

	for i := range c.fetchTimeBuckets {
		s.FetchTimeHist[i] = c.fetchTimeBuckets[i].Load()
	}

	return s
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp        time.Time        `json:"timestamp"`
	Uptime           time.Duration    `json:"uptime"`
	FetchesTotal     int64            `json:"fetches_total"`
	FailuresTotal    int64            `json:"failures_total"`
	PagesDiscovered  int64            `json:"pages_discovered"`
	SkippedTotal     int64            `json:"skipped_total"`
	RecordsTotal     int64            `json:"records_total"`
	FlushesTotal     int64            `json:"flushes_total"`
	BytesTotal       int64            `json:"bytes_total"`
	QueueDepth       int64            `json:"queue_depth"`
	FetchesPerMinute float64          `json:"fetches_per_minute"`
	AverageFetchTime time.Duration    `json:"average_fetch_time"`
	FailureCounts    map[string]int64 `json:"failure_counts"`
	RecordCounts     map[string]int64 `json:"record_counts"`
	FetchTimeHist    []int64          `json:"fetch_time_histogram"`
}

// FailureRate returns failures over attempted fetches.
func (s *Snapshot) FailureRate() float64 {
	attempts := s.FetchesTotal + s.FailuresTotal
	if attempts == 0 {
		return 0
	}
	return float64(s.FailuresTotal) / float64(attempts)
}

// ContentTypes returns the record content types seen, sorted.
func (s *Snapshot) ContentTypes() []string {
	types := make([]string, 0, len(s.RecordCounts))
	for k := range s.RecordCounts {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Summary returns a flat map suitable for structured logging.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":             s.Uptime.String(),
		"fetches_total":      s.FetchesTotal,
		"failures_total":     s.FailuresTotal,
		"failure_rate":       s.FailureRate(),
		"records_total":      s.RecordsTotal,
		"flushes_total":      s.FlushesTotal,
		"skipped_total":      s.SkippedTotal,
		"pages_discovered":   s.PagesDiscovered,
		"queue_depth":        s.QueueDepth,
		"fetches_per_minute": s.FetchesPerMinute,
		"avg_fetch_time_ms":  s.AverageFetchTime.Milliseconds(),
	}
}
