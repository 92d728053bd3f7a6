package harvester

import (
	"fmt"
	"os"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

// Status reports what a resumed harvest would start from.
type Status struct {
	CheckpointFile string `json:"checkpoint_file"`
	ProcessedURLs  int    `json:"processed_urls"`

	StateFile string         `json:"state_file,omitempty"`
	HasState  bool           `json:"has_state"`
	RunID     string         `json:"run_id,omitempty"`
	Domain    string         `json:"domain,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
	Pending   int            `json:"pending"`
	LastRun   state.RunStats `json:"last_run"`
	Totals    state.RunStats `json:"totals"`
}

// ReadStatus inspects the checkpoint log and, when configured and present,
// the resume state file. Neither file is created.
func ReadStatus(cfg *Config) (*Status, error) {
	status := &Status{
		CheckpointFile: cfg.State.CheckpointFile,
		StateFile:      cfg.State.StateFile,
	}

	if cfg.State.CheckpointFile != "" {
		keys, err := state.LoadCheckpoint(cfg.State.CheckpointFile)
		if err != nil {
			return nil, err
		}
		status.ProcessedURLs = len(keys)
	}

	if cfg.State.StateFile == "" {
		return status, nil
	}
	if _, err := os.Stat(cfg.State.StateFile); os.IsNotExist(err) {
		return status, nil
	}

	store, err := state.NewBoltStore(cfg.State.StateFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	saved, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if saved == nil {
		return status, nil
	}

	status.HasState = true
	status.RunID = saved.RunID
	status.Domain = saved.Domain
	status.UpdatedAt = saved.UpdatedAt
	status.Pending = len(saved.Pending)
	status.LastRun = saved.Stats
	status.Totals = saved.Totals
	return status, nil
}
