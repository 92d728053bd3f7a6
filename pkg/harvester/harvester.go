package harvester

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/browser"
	harvesterrors "github.com/PentesterFlow/OpenHarvest/internal/errors"
	"github.com/PentesterFlow/OpenHarvest/internal/frontier"
	"github.com/PentesterFlow/OpenHarvest/internal/logger"
	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
	"github.com/PentesterFlow/OpenHarvest/internal/output"
	"github.com/PentesterFlow/OpenHarvest/internal/parser"
	"github.com/PentesterFlow/OpenHarvest/internal/queue"
	"github.com/PentesterFlow/OpenHarvest/internal/ratelimit"
	"github.com/PentesterFlow/OpenHarvest/internal/state"
)

// estimatedURLs sizes the processed set's bloom filter.
const estimatedURLs = 50000

// Harvester is the crawl orchestrator. A Harvester runs once.
type Harvester struct {
	config *Config

	// Collaborators; nil ones are built from config in Run
	renderer Renderer
	writer   output.Writer
	store    state.Store

	logger  *logger.Logger
	metrics *metrics.Collector

	extractor *parser.Extractor
	links     *parser.LinkDiscoverer
	limiter   *ratelimit.Limiter
	pacer     *ratelimit.Pacer

	newRenderer func(browser.Config) (Renderer, error)

	started atomic.Bool
}

// New creates a new harvester with the given options.
func New(opts ...Option) (*Harvester, error) {
	h := &Harvester{
		config: DefaultConfig(),
		newRenderer: func(cfg browser.Config) (Renderer, error) {
			return browser.New(cfg)
		},
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := h.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if h.logger == nil {
		level := logger.InfoLevel
		if h.config.Debug {
			level = logger.DebugLevel
		}
		h.logger = logger.New(logger.Config{
			Level:     level,
			Pretty:    true,
			Component: "harvester",
		})
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}

	h.extractor = parser.NewExtractor()
	h.links = parser.NewLinkDiscoverer(h.config.TargetDomain)
	h.limiter = ratelimit.NewLimiter(h.config.MaxRequestsPerSecond, 1)
	h.pacer = ratelimit.NewPacer(h.config.RequestDelay())

	return h, nil
}

// Config returns the harvester configuration.
func (h *Harvester) Config() *Config {
	return h.config
}

// Metrics returns the metrics collector.
func (h *Harvester) Metrics() *metrics.Collector {
	return h.metrics
}

// Run harvests until the frontier is empty, the page cap is reached, ctx
// is cancelled or an unexpected error occurs. On every exit path after the
// renderer is acquired the remaining batch is flushed, the checkpoint is
// rewritten and all resources are released. Cancellation is checked
// between pages; a fetch in flight always completes.
func (h *Harvester) Run(ctx context.Context) (*RunSummary, error) {
	if !h.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	r, err := h.prepare()
	if err != nil {
		return nil, err
	}

	return r.execute(ctx)
}

// prepare acquires the state, writer and renderer in that order, releasing
// whatever was already acquired if a later step fails.
func (h *Harvester) prepare() (*run, error) {
	log := h.logger.WithDomain(h.config.TargetDomain)

	store := h.store
	if store == nil && h.config.State.StateFile != "" {
		var err error
		store, err = state.NewBoltStore(h.config.State.StateFile)
		if err != nil {
			return nil, err
		}
	}

	manager := state.NewManager(h.config.State.CheckpointFile, store, h.config.TargetDomain, estimatedURLs)
	loaded, err := manager.Load()
	if err != nil {
		manager.Close()
		return nil, err
	}
	log = log.WithRunID(manager.RunID())
	if loaded > 0 {
		log.Infof("Loaded %d processed URLs from checkpoint", loaded)
	}

	writer := h.writer
	if writer == nil {
		writer, err = output.NewWriter(h.config.Output)
		if err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to open output: %w", err)
		}
	}

	renderer := h.renderer
	if renderer == nil {
		renderer, err = h.newRenderer(h.config.BrowserConfig())
		if err != nil {
			writer.Close()
			manager.Close()
			return nil, fmt.Errorf("failed to start renderer: %w", err)
		}
	}

	r := &run{
		h:        h,
		log:      log,
		state:    manager,
		frontier: frontier.New(h.config.TargetDomain, manager.Processed()),
		batch:    output.NewBatch(h.config.BatchFlushSize),
		writer:   writer,
		renderer: renderer,
		failures: make(map[string]int),
		records:  make(map[string]int),
		started:  time.Now(),
	}

	seeded := r.frontier.EnqueueAll(h.config.Seeds())
	resumed := r.frontier.EnqueueAll(manager.SavedPending())
	log.Infof("Queue initialized with %d URLs (%d seeds, %d resumed)", r.frontier.Len(), seeded, resumed)

	return r, nil
}

// run is the state of a single harvest: the frontier, the batch and the
// acquired resources. Only the goroutine calling Run touches it.
type run struct {
	h   *Harvester
	log *logger.Logger

	state    *state.Manager
	frontier *frontier.Frontier
	batch    *output.Batch
	writer   output.Writer
	renderer Renderer

	stats    state.RunStats
	failures map[string]int
	records  map[string]int
	started  time.Time
}

func (r *run) execute(ctx context.Context) (summary *RunSummary, err error) {
	reason := StopError

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("harvest loop panicked: %v", p)
			reason = StopError
		}
		if err != nil {
			r.log.WithError(err).Error("Harvest stopped by error")
		}
		if ferr := r.finalize(); ferr != nil {
			r.log.WithError(ferr).Error("Finalization failed")
			if err == nil {
				err = ferr
			}
		}
		summary = r.summary(reason)
		r.log.StatsEvent(summary.Fields())
	}()

	reason, err = r.loop(ctx)
	return summary, err
}

func (r *run) loop(ctx context.Context) (StopReason, error) {
	maxPages := r.h.config.MaxPagesPerRun

	for r.frontier.Len() > 0 {
		if r.stats.PagesFetched >= maxPages {
			r.log.Infof("Reached max pages per run (%d)", maxPages)
			return StopMaxPages, nil
		}
		if ctx.Err() != nil {
			r.log.Info("Harvest interrupted")
			return StopInterrupted, nil
		}

		rawURL, err := r.frontier.Dequeue()
		if errors.Is(err, queue.ErrQueueEmpty) {
			break
		}
		if err != nil {
			return StopError, err
		}
		r.h.metrics.SetQueueDepth(r.frontier.Len())

		if r.frontier.IsProcessed(rawURL) {
			continue
		}

		if !r.frontier.InScope(rawURL) {
			r.frontier.MarkProcessed(rawURL)
			r.stats.SkippedURLs++
			r.h.metrics.RecordSkipped()
			r.log.Debugf("Skipping off-domain URL: %s", rawURL)
			continue
		}

		if err := r.h.limiter.Wait(ctx); err != nil {
			r.log.Info("Harvest interrupted")
			return StopInterrupted, nil
		}

		if err := r.process(ctx, rawURL); err != nil {
			return StopError, err
		}

		if err := r.h.pacer.Pause(ctx); err != nil {
			r.log.Info("Harvest interrupted")
			return StopInterrupted, nil
		}
	}

	r.log.Info("Frontier exhausted")
	return StopCompleted, nil
}

// process fetches one in-scope URL and feeds the result to the extractor,
// the batch and the frontier. Fetch failures are logged and swallowed;
// only persistence errors are returned.
func (r *run) process(ctx context.Context, rawURL string) error {
	r.log.Infof("Processing %d/%d: %s", r.stats.PagesFetched+1, r.h.config.MaxPagesPerRun, rawURL)

	// A fetch in flight is never cancelled; it is bounded by its own timeout.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.h.config.PageLoadTimeout()+r.h.config.RenderWait())
	defer cancel()

	start := time.Now()
	markup, err := r.renderer.Fetch(fetchCtx, rawURL)
	r.frontier.MarkProcessed(rawURL)

	if err != nil {
		ferr := harvesterrors.Categorize(err, rawURL)
		errType := ferr.Type.String()
		r.stats.FetchFailures++
		r.failures[errType]++
		r.h.metrics.RecordFailure(errType)
		r.log.FetchFailureEvent(err, rawURL, errType)
		return nil
	}

	r.stats.PagesFetched++
	r.h.metrics.RecordFetch(time.Since(start), len(markup))

	records, err := r.h.extractor.Extract(markup, rawURL)
	if err != nil {
		r.log.WithURL(rawURL).WithError(err).Warn("Failed to parse page")
	}

	full := false
	if len(records) == 0 {
		r.log.WithURL(rawURL).Info("No content extracted")
	} else {
		for _, rec := range records {
			r.records[rec.ContentType]++
			r.h.metrics.RecordRecord(rec.ContentType)
		}
		full = r.batch.Add(records...)
	}

	links, err := r.h.links.Discover(markup, rawURL)
	if err != nil {
		r.log.WithURL(rawURL).WithError(err).Warn("Failed to discover links")
	}
	added := r.frontier.EnqueueAll(links)
	r.h.metrics.RecordDiscovered(added)

	r.log.PageEvent(rawURL, len(records), added, time.Since(start))
	r.log.Debugf("Queue size: %d", r.frontier.Len())

	// The page is already marked processed, so its links must be queued
	// before the checkpoint is written.
	if full {
		return r.flush()
	}
	return nil
}

func (r *run) summary(reason StopReason) *RunSummary {
	finished := time.Now()
	return &RunSummary{
		RunID:          r.state.RunID(),
		Domain:         r.h.config.TargetDomain,
		StartedAt:      r.started,
		FinishedAt:     finished,
		Duration:       finished.Sub(r.started),
		StopReason:     reason,
		Stats:          r.stats,
		FailuresByType: r.failures,
		RecordsByType:  r.records,
		Pending:        r.frontier.Len(),
		ProcessedTotal: r.frontier.Processed().Len(),
		Metrics:        r.h.metrics.Snapshot(),
	}
}
