package harvester

import (
	"fmt"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/logger"
	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
	"github.com/PentesterFlow/OpenHarvest/internal/output"
	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

// Option is a functional option for configuring the Harvester.
type Option func(*Harvester) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(h *Harvester) error {
		if config == nil {
			return fmt.Errorf("config is nil")
		}
		h.config = config
		return nil
	}
}

// WithTargetDomain sets the domain to harvest.
func WithTargetDomain(domain string) Option {
	return func(h *Harvester) error {
		h.config.TargetDomain = domain
		return nil
	}
}

// WithSeeds sets the seed URLs.
func WithSeeds(urls ...string) Option {
	return func(h *Harvester) error {
		h.config.SeedURLs = append([]string(nil), urls...)
		return nil
	}
}

// WithDelay sets the pause after each fetched page.
func WithDelay(d time.Duration) Option {
	return func(h *Harvester) error {
		if d < 0 {
			d = 0
		}
		h.config.RequestDelaySeconds = d.Seconds()
		return nil
	}
}

// WithTimeout sets the page load timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Harvester) error {
		h.config.RequestTimeoutSeconds = d.Seconds()
		return nil
	}
}

// WithRenderWait sets the fragment wait bound.
func WithRenderWait(d time.Duration) Option {
	return func(h *Harvester) error {
		h.config.RenderWaitSeconds = d.Seconds()
		return nil
	}
}

// WithMaxPages sets the per-run page cap.
func WithMaxPages(n int) Option {
	return func(h *Harvester) error {
		if n < 1 {
			n = 1
		}
		h.config.MaxPagesPerRun = n
		return nil
	}
}

// WithBatchSize sets the number of records buffered before a flush.
func WithBatchSize(n int) Option {
	return func(h *Harvester) error {
		if n < 1 {
			n = output.DefaultFlushSize
		}
		h.config.BatchFlushSize = n
		return nil
	}
}

// WithRateLimit caps fetch starts per second. Zero removes the cap.
func WithRateLimit(rps float64) Option {
	return func(h *Harvester) error {
		h.config.MaxRequestsPerSecond = rps
		return nil
	}
}

// WithOutput sets the dataset format and path.
func WithOutput(format, path string) Option {
	return func(h *Harvester) error {
		h.config.Output = output.Config{Format: format, FilePath: path}
		return nil
	}
}

// WithOutputWriter replaces the dataset writer. The harvester closes it
// when the run ends.
func WithOutputWriter(w output.Writer) Option {
	return func(h *Harvester) error {
		h.writer = w
		return nil
	}
}

// WithCheckpointFile sets the processed URL log path. Empty disables it.
func WithCheckpointFile(path string) Option {
	return func(h *Harvester) error {
		h.config.State.CheckpointFile = path
		return nil
	}
}

// WithStateFile sets the resume state file path.
func WithStateFile(path string) Option {
	return func(h *Harvester) error {
		h.config.State.StateFile = path
		return nil
	}
}

// WithStateStore replaces the resume state store. The harvester closes it
// when the run ends.
func WithStateStore(store state.Store) Option {
	return func(h *Harvester) error {
		h.store = store
		return nil
	}
}

// WithRenderer replaces the headless browser. The harvester closes it when
// the run ends.
func WithRenderer(r Renderer) Option {
	return func(h *Harvester) error {
		h.renderer = r
		return nil
	}
}

// WithHeadless enables/disables headless mode.
func WithHeadless(headless bool) Option {
	return func(h *Harvester) error {
		h.config.Browser.Headless = headless
		return nil
	}
}

// WithUserAgent sets the user agent string.
func WithUserAgent(ua string) Option {
	return func(h *Harvester) error {
		h.config.Browser.UserAgent = ua
		return nil
	}
}

// WithHeaders sets extra headers for every page request.
func WithHeaders(headers map[string]string) Option {
	return func(h *Harvester) error {
		if h.config.Browser.Headers == nil {
			h.config.Browser.Headers = make(map[string]string)
		}
		for k, v := range headers {
			h.config.Browser.Headers[k] = v
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Harvester) error {
		h.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(h *Harvester) error {
		h.metrics = m
		return nil
	}
}
