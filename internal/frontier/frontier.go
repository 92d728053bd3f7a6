// Package frontier manages the pending URL queue and the processed set
// for a single-domain harvest.
package frontier

import (
	"strings"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/queue"
	"github.com/PentesterFlow/OpenHarvest/internal/scope"
	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

// Frontier holds the FIFO pending queue and the processed set.
// Both are keyed by scope.DedupKey, so differently spelled URLs with the
// same key collapse into one entry. It is not safe for concurrent use.
type Frontier struct {
	queue     *queue.MemoryQueue
	processed *state.ProcessedSet
	scope     *scope.Checker
}

// New creates a frontier for domain backed by processed.
func New(domain string, processed *state.ProcessedSet) *Frontier {
	if processed == nil {
		processed = state.NewProcessedSet(0)
	}
	return &Frontier{
		queue:     queue.NewMemoryQueue(),
		processed: processed,
		scope:     scope.NewChecker(domain),
	}
}

// Enqueue appends rawURL to the pending queue unless its dedup key is
// already processed or already queued. It reports whether the URL was added.
func (f *Frontier) Enqueue(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	key := scope.DedupKey(rawURL)
	if f.processed.Has(key) || f.queue.Contains(key) {
		return false
	}

	return f.queue.Push(&queue.QueueItem{
		URL:       rawURL,
		Key:       key,
		Timestamp: time.Now(),
	})
}

// EnqueueAll enqueues urls in order and returns how many were added.
func (f *Frontier) EnqueueAll(urls []string) int {
	added := 0
	for _, u := range urls {
		if f.Enqueue(u) {
			added++
		}
	}
	return added
}

// Dequeue removes and returns the head of the pending queue.
// It returns queue.ErrQueueEmpty when nothing is pending.
func (f *Frontier) Dequeue() (string, error) {
	item, err := f.queue.Pop()
	if err != nil {
		return "", err
	}
	return item.URL, nil
}

// MarkProcessed adds the dedup key of rawURL to the processed set.
// It reports whether the key was new.
func (f *Frontier) MarkProcessed(rawURL string) bool {
	return f.processed.Add(scope.DedupKey(rawURL))
}

// IsProcessed checks whether the dedup key of rawURL is processed.
func (f *Frontier) IsProcessed(rawURL string) bool {
	return f.processed.Has(scope.DedupKey(rawURL))
}

// InScope reports whether rawURL belongs to the target domain.
func (f *Frontier) InScope(rawURL string) bool {
	return f.scope.InScope(rawURL)
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	return f.queue.Len()
}

// Pending returns the pending raw URLs, head first.
func (f *Frontier) Pending() []string {
	return f.queue.URLs()
}

// Processed returns the processed set.
func (f *Frontier) Processed() *state.ProcessedSet {
	return f.processed
}

// Domain returns the target domain.
func (f *Frontier) Domain() string {
	return f.scope.Domain()
}
