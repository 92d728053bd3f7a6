package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/OpenHarvest/internal/logger"
	"github.com/PentesterFlow/OpenHarvest/internal/progress"
	"github.com/PentesterFlow/OpenHarvest/internal/shutdown"
	"github.com/PentesterFlow/OpenHarvest/pkg/harvester"
)

var version = "1.0.0"

// flags holds every command-line value. Crawl settings only override the
// config file when the flag was set explicitly.
type flags struct {
	configFile string
	verbose    bool
	debug      bool
	logLevel   string
	jsonLogs   bool

	seeds       []string
	delay       float64
	timeout     float64
	renderWait  float64
	batchSize   int
	maxPages    int
	rateLimit   float64
	format      string
	outputFile  string
	checkpoint  string
	stateFile   string
	userAgent   string
	headers     []string
	headless    bool
	browserPath string
	noProgress  bool
}

func main() {
	if err := newRootCmd(&flags{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "openharvest",
		Short: "OpenHarvest - single-domain content harvester",
		Long: `OpenHarvest - renders every page of one domain in headless Chrome and
harvests its readable content and FAQ question/answer pairs into a dataset.

Runs are resumable: processed URLs are checkpointed after every batch and
skipped by later runs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	crawlCmd := &cobra.Command{
		Use:   "crawl [domain]",
		Short: "Harvest a domain",
		Long:  "Harvest a domain, resuming from the checkpoint when one exists.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args, f)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show harvest progress",
		Long:  "Show the checkpoint size and, when a state file is configured, the saved queue and totals.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, f)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "harvest.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := harvester.DefaultConfig().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "openharvest %s\n", version)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides --verbose/--debug")
	rootCmd.PersistentFlags().BoolVar(&f.jsonLogs, "json-logs", false, "Write logs as JSON instead of console text")
	rootCmd.PersistentFlags().StringVar(&f.checkpoint, "checkpoint", "", "Processed URL log (default processed_urls.log)")
	rootCmd.PersistentFlags().StringVar(&f.stateFile, "state-file", "", "Resume state file (bbolt)")

	// Crawl flags
	crawlCmd.Flags().StringArrayVarP(&f.seeds, "seed", "s", nil, "Seed URL (repeatable, default https://<domain>/)")
	crawlCmd.Flags().Float64VarP(&f.delay, "delay", "d", 3, "Delay after each page in seconds")
	crawlCmd.Flags().Float64VarP(&f.timeout, "timeout", "t", 30, "Page load timeout in seconds")
	crawlCmd.Flags().Float64Var(&f.renderWait, "render-wait", 5, "Max extra wait for fragment-routed pages in seconds")
	crawlCmd.Flags().IntVarP(&f.batchSize, "batch-size", "b", 5, "Records buffered before each flush")
	crawlCmd.Flags().IntVarP(&f.maxPages, "max-pages", "m", 500, "Pages fetched per run")
	crawlCmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "Max page fetches per second (0 = no limit)")
	crawlCmd.Flags().StringVarP(&f.format, "format", "f", "csv", "Dataset format (csv, jsonl, sqlite)")
	crawlCmd.Flags().StringVarP(&f.outputFile, "output", "o", "harvest_output.csv", "Dataset file")
	crawlCmd.Flags().StringVar(&f.userAgent, "user-agent", "", "User agent override")
	crawlCmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `Extra request header "Name: value" (repeatable)`)
	crawlCmd.Flags().BoolVar(&f.headless, "headless", true, "Run Chrome headless")
	crawlCmd.Flags().StringVar(&f.browserPath, "browser-bin", "", "Chrome binary path (default: auto-detect)")
	crawlCmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar (log every page instead)")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig starts from the config file, if any, and applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string, f *flags) (*harvester.Config, error) {
	config := harvester.DefaultConfig()
	if f.configFile != "" {
		fileConfig, err := harvester.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	if len(args) == 1 {
		config.TargetDomain = args[0]
	}

	changed := cmd.Flags().Changed
	if changed("checkpoint") {
		config.State.CheckpointFile = f.checkpoint
	}
	if changed("state-file") {
		config.State.StateFile = f.stateFile
	}
	if changed("seed") {
		config.SeedURLs = f.seeds
	}
	if changed("delay") {
		config.RequestDelaySeconds = f.delay
	}
	if changed("timeout") {
		config.RequestTimeoutSeconds = f.timeout
	}
	if changed("render-wait") {
		config.RenderWaitSeconds = f.renderWait
	}
	if changed("batch-size") {
		config.BatchFlushSize = f.batchSize
	}
	if changed("max-pages") {
		config.MaxPagesPerRun = f.maxPages
	}
	if changed("rate-limit") {
		config.MaxRequestsPerSecond = f.rateLimit
	}
	if changed("format") {
		config.Output.Format = f.format
	}
	if changed("output") {
		config.Output.FilePath = f.outputFile
	}
	if changed("user-agent") {
		config.Browser.UserAgent = f.userAgent
	}
	if changed("header") {
		headers, err := parseHeaders(f.headers)
		if err != nil {
			return nil, err
		}
		if config.Browser.Headers == nil {
			config.Browser.Headers = make(map[string]string)
		}
		for k, v := range headers {
			config.Browser.Headers[k] = v
		}
	}
	if changed("headless") {
		config.Browser.Headless = f.headless
	}
	if changed("browser-bin") {
		config.Browser.BinPath = f.browserPath
	}
	if f.verbose {
		config.Verbose = true
	}
	if f.debug {
		config.Debug = true
	}

	return config, nil
}

// parseHeaders turns "Name: value" pairs into a map.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// newLogger picks the level from --log-level, then --debug/--verbose, then
// the progress bar, which keeps page events from overwriting it.
func newLogger(config *harvester.Config, f *flags, quiet bool) (*logger.Logger, error) {
	cfg := logger.DefaultConfig()
	cfg.Component = "harvester"
	cfg.Pretty = !f.jsonLogs

	switch {
	case f.logLevel != "":
		level, err := logger.ParseLevel(f.logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", f.logLevel, err)
		}
		cfg.Level = level
	case config.Debug || config.Verbose:
		cfg.Level = logger.DebugLevel
	case quiet:
		cfg.Level = logger.WarnLevel
	}

	return logger.New(cfg), nil
}

func runCrawl(cmd *cobra.Command, args []string, f *flags) error {
	config, err := loadConfig(cmd, args, f)
	if err != nil {
		return err
	}

	showProgress := !f.noProgress && !config.Verbose && !config.Debug
	log, err := newLogger(config, f, showProgress)
	if err != nil {
		return err
	}

	h, err := harvester.New(
		harvester.WithConfig(config),
		harvester.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create harvester: %w", err)
	}

	// The first signal cancels the run between pages. Releasing the
	// handler afterwards lets a second signal kill the process.
	var sh *shutdown.Handler
	sh = shutdown.New(shutdown.Config{
		OnShutdownStart: func(sig os.Signal) {
			if sig != nil {
				log.Warnf("Received %v, finishing current page before stopping", sig)
				sh.Stop()
			}
		},
	})
	defer sh.Stop()
	sh.Listen()

	printBanner(cmd.OutOrStdout(), config)

	var tracking sync.WaitGroup
	trackCtx, stopTracking := context.WithCancel(context.Background())
	if showProgress {
		display := progress.New(cmd.ErrOrStderr())
		display.Start(config.TargetDomain, config.MaxPagesPerRun)
		tracking.Add(1)
		go func() {
			defer tracking.Done()
			display.Track(trackCtx, time.Second, h.Metrics().Snapshot)
		}()
	}

	summary, err := h.Run(sh.Context())
	stopTracking()
	tracking.Wait()
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	return nil
}

func runStatus(cmd *cobra.Command, f *flags) error {
	config, err := loadConfig(cmd, nil, f)
	if err != nil {
		return err
	}

	status, err := harvester.ReadStatus(config)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checkpoint:      %s\n", displayPath(status.CheckpointFile))
	fmt.Fprintf(out, "Processed URLs:  %d\n", status.ProcessedURLs)

	if status.StateFile == "" {
		return nil
	}
	fmt.Fprintf(out, "State file:      %s\n", status.StateFile)
	if !status.HasState {
		fmt.Fprintln(out, "Saved state:     none")
		return nil
	}
	fmt.Fprintf(out, "Domain:          %s\n", status.Domain)
	fmt.Fprintf(out, "Last run:        %s (updated %s)\n", status.RunID, status.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Pending URLs:    %d\n", status.Pending)
	fmt.Fprintf(out, "Pages fetched:   %d last run, %d total\n", status.LastRun.PagesFetched, status.Totals.PagesFetched)
	fmt.Fprintf(out, "Records written: %d last run, %d total\n", status.LastRun.RecordsWritten, status.Totals.RecordsWritten)
	fmt.Fprintf(out, "Fetch failures:  %d last run, %d total\n", status.LastRun.FetchFailures, status.Totals.FetchFailures)
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "(disabled)"
	}
	return path
}

func printBanner(w io.Writer, config *harvester.Config) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "OpenHarvest %s\n", version)
	fmt.Fprintf(w, "Domain:     %s\n", config.TargetDomain)
	fmt.Fprintf(w, "Seeds:      %s\n", strings.Join(config.Seeds(), ", "))
	fmt.Fprintf(w, "Max pages:  %d\n", config.MaxPagesPerRun)
	fmt.Fprintf(w, "Delay:      %v\n", config.RequestDelay())
	fmt.Fprintf(w, "Output:     %s (%s)\n", config.Output.FilePath, config.Output.Format)
	fmt.Fprintf(w, "Checkpoint: %s\n", displayPath(config.State.CheckpointFile))
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s *harvester.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Harvest Summary")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Stopped:          %s\n", s.StopReason)
	fmt.Fprintf(w, "Duration:         %v\n", s.Duration.Round(time.Second))
	fmt.Fprintf(w, "Pages fetched:    %d\n", s.Stats.PagesFetched)
	fmt.Fprintf(w, "Fetch failures:   %d\n", s.Stats.FetchFailures)
	fmt.Fprintf(w, "Skipped URLs:     %d\n", s.Stats.SkippedURLs)
	fmt.Fprintf(w, "Records written:  %d\n", s.Stats.RecordsWritten)
	fmt.Fprintf(w, "Pending URLs:     %d\n", s.Pending)
	fmt.Fprintf(w, "Processed total:  %d\n", s.ProcessedTotal)

	if len(s.FailuresByType) > 0 {
		fmt.Fprintln(w, "Failures by type:")
		types := make([]string, 0, len(s.FailuresByType))
		for t := range s.FailuresByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(w, "  %-12s %d\n", t, s.FailuresByType[t])
		}
	}

	if len(s.RecordsByType) > 0 {
		fmt.Fprintln(w, "Records by content type:")
		for _, t := range s.ContentTypes() {
			fmt.Fprintf(w, "  %-40s %d\n", t, s.RecordsByType[t])
		}
	}
	fmt.Fprintln(w)
}
