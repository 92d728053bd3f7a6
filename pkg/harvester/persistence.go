package harvester

import (
	"errors"
	"fmt"
)

// flush appends the buffered records to the dataset and rewrites the
// checkpoint. An empty batch skips the dataset write but still rewrites
// the checkpoint. Records that fail to write stay buffered.
func (r *run) flush() error {
	written := 0
	if r.batch.Len() > 0 {
		records := r.batch.Drain()
		if err := r.writer.WriteRecords(records); err != nil {
			r.batch.Add(records...)
			return fmt.Errorf("failed to write %d records: %w", len(records), err)
		}
		written = len(records)
		r.stats.RecordsWritten += written
		r.stats.Flushes++
		r.h.metrics.RecordFlush()
	}

	if err := r.state.Checkpoint(r.frontier.Pending(), r.stats); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	r.log.FlushEvent(written, r.h.config.Output.FilePath, r.frontier.Len())
	r.log.Debugf("Checkpoint holds %d processed URLs", r.frontier.Processed().Len())
	return nil
}

// finalize runs once on every exit path: final flush, then release of the
// renderer, the writer and the state store. All steps run even if an
// earlier one fails.
func (r *run) finalize() error {
	var errs []error

	if err := r.flush(); err != nil {
		errs = append(errs, err)
	}

	if err := r.renderer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close renderer: %w", err))
	}

	if err := r.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close output: %w", err))
	}

	if err := r.state.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close state: %w", err))
	}

	return errors.Join(errs...)
}
