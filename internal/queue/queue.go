// Package queue provides the pending-URL queue for the harvester.
package queue

import "errors"

// ErrQueueEmpty is returned by Pop when nothing is queued.
var ErrQueueEmpty = errors.New("queue is empty")
