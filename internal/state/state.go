// Package state provides processed-URL tracking and resumable run state.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Manager owns the processed set, its checkpoint log and the optional
// run-state store.
type Manager struct {
	processed      *ProcessedSet
	checkpointPath string
	store          Store
	domain         string
	runID          string
	startedAt      time.Time
	totals         RunStats
	savedPending   []string
}

// NewManager creates a new state manager. An empty checkpointPath disables
// the checkpoint log and a nil store disables run-state snapshots.
func NewManager(checkpointPath string, store Store, domain string, estimatedURLs int) *Manager {
	return &Manager{
		processed:      NewProcessedSet(estimatedURLs),
		checkpointPath: checkpointPath,
		store:          store,
		domain:         domain,
		runID:          uuid.NewString(),
		startedAt:      time.Now(),
	}
}

// Load reads the checkpoint log into the processed set and restores the
// pending queue and cumulative totals from the store, if any.
// It returns the number of keys loaded from the checkpoint.
func (m *Manager) Load() (int, error) {
	loaded := 0
	if m.checkpointPath != "" {
		keys, err := LoadCheckpoint(m.checkpointPath)
		if err != nil {
			return 0, err
		}
		loaded = m.processed.AddBatch(keys)
	}

	if m.store == nil {
		return loaded, nil
	}

	saved, err := m.store.Load()
	if err != nil {
		return loaded, fmt.Errorf("failed to load run state: %w", err)
	}
	if saved == nil {
		return loaded, nil
	}
	if saved.Domain != "" && m.domain != "" && saved.Domain != m.domain {
		return loaded, fmt.Errorf("state file belongs to domain %q, not %q", saved.Domain, m.domain)
	}

	m.totals = saved.Totals
	m.savedPending = saved.Pending
	return loaded, nil
}

// SavedPending returns the pending URLs restored by Load, head first.
func (m *Manager) SavedPending() []string {
	return m.savedPending
}

// Processed returns the processed set.
func (m *Manager) Processed() *ProcessedSet {
	return m.processed
}

// RunID returns the identifier of the current run.
func (m *Manager) RunID() string {
	return m.runID
}

// Checkpoint rewrites the checkpoint log from the processed set and then
// snapshots the pending queue and stats into the store.
func (m *Manager) Checkpoint(pending []string, stats RunStats) error {
	if m.checkpointPath != "" {
		if err := WriteCheckpoint(m.checkpointPath, m.processed.Sorted()); err != nil {
			return err
		}
	}

	if m.store == nil {
		return nil
	}

	state := &RunState{
		RunID:     m.runID,
		Domain:    m.domain,
		StartedAt: m.startedAt,
		UpdatedAt: time.Now(),
		Pending:   pending,
		Stats:     stats,
		Totals:    m.totals.Add(stats),
	}
	if err := m.store.Save(state); err != nil {
		return fmt.Errorf("failed to save run state: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
