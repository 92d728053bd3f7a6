package harvester

import (
	"testing"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/logger"
	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

func newOptionHarvester(t *testing.T, opts ...Option) *Harvester {
	t.Helper()
	base := []Option{WithTargetDomain("example.com"), WithLogger(logger.Nop())}
	h, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h
}

func TestOptions_Timing(t *testing.T) {
	h := newOptionHarvester(t,
		WithDelay(1500*time.Millisecond),
		WithTimeout(10*time.Second),
		WithRenderWait(2*time.Second),
	)

	if h.config.RequestDelaySeconds != 1.5 {
		t.Errorf("RequestDelaySeconds = %v, want 1.5", h.config.RequestDelaySeconds)
	}
	if h.config.PageLoadTimeout() != 12*time.Second {
		t.Errorf("PageLoadTimeout() = %v, want 12s", h.config.PageLoadTimeout())
	}
	if h.pacer.Delay() != 1500*time.Millisecond {
		t.Errorf("pacer delay = %v, want 1.5s", h.pacer.Delay())
	}
}

func TestOptions_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(*Config) bool
	}{
		{"negative delay", WithDelay(-time.Second), func(c *Config) bool { return c.RequestDelaySeconds == 0 }},
		{"zero max pages", WithMaxPages(0), func(c *Config) bool { return c.MaxPagesPerRun == 1 }},
		{"zero batch size", WithBatchSize(0), func(c *Config) bool { return c.BatchFlushSize == 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newOptionHarvester(t, tt.opt)
			if !tt.check(h.config) {
				t.Errorf("unexpected config after %s: %+v", tt.name, h.config)
			}
		})
	}
}

func TestOptions_Output(t *testing.T) {
	h := newOptionHarvester(t,
		WithOutput("sqlite", "harvest.db"),
		WithCheckpointFile("seen.log"),
		WithStateFile("state.db"),
	)

	if h.config.Output.Format != "sqlite" || h.config.Output.FilePath != "harvest.db" {
		t.Errorf("Output = %+v", h.config.Output)
	}
	if h.config.State.CheckpointFile != "seen.log" || h.config.State.StateFile != "state.db" {
		t.Errorf("State = %+v", h.config.State)
	}
}

func TestOptions_Browser(t *testing.T) {
	h := newOptionHarvester(t,
		WithHeadless(false),
		WithUserAgent("HarvestBot/1.0"),
		WithHeaders(map[string]string{"X-A": "1"}),
		WithHeaders(map[string]string{"X-B": "2"}),
	)

	if h.config.Browser.Headless {
		t.Error("Headless should be false")
	}
	if h.config.Browser.UserAgent != "HarvestBot/1.0" {
		t.Errorf("UserAgent = %q", h.config.Browser.UserAgent)
	}
	if len(h.config.Browser.Headers) != 2 {
		t.Errorf("Headers = %v, want both headers merged", h.config.Browser.Headers)
	}
}

func TestOptions_Collaborators(t *testing.T) {
	m := metrics.New()
	store := state.NewMemoryStore()
	r := newFakeRenderer(nil)
	w := &memWriter{}

	h := newOptionHarvester(t,
		WithMetrics(m),
		WithStateStore(store),
		WithRenderer(r),
		WithOutputWriter(w),
		WithRateLimit(2),
	)

	if h.Metrics() != m {
		t.Error("WithMetrics not applied")
	}
	if h.store != store || h.renderer != r || h.writer != w {
		t.Error("collaborator options not applied")
	}
	if h.config.MaxRequestsPerSecond != 2 {
		t.Errorf("MaxRequestsPerSecond = %v, want 2", h.config.MaxRequestsPerSecond)
	}
	if h.limiter == nil {
		t.Error("limiter not built")
	}
}

func TestOptions_WithConfig(t *testing.T) {
	config := DefaultConfig()
	config.TargetDomain = "example.org"
	config.MaxPagesPerRun = 7

	h, err := New(WithConfig(config), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if h.Config() != config {
		t.Error("WithConfig should install the given config")
	}
	if h.config.MaxPagesPerRun != 7 {
		t.Errorf("MaxPagesPerRun = %d, want 7", h.config.MaxPagesPerRun)
	}
}
