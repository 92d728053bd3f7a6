package queue

import "time"

// QueueItem represents a URL waiting in the frontier.
type QueueItem struct {
	// URL is the raw URL as discovered.
	URL string
	// Key is the canonical form used for membership checks.
	Key       string
	Timestamp time.Time
}
