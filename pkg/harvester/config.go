package harvester

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/OpenHarvest/internal/browser"
	"github.com/PentesterFlow/OpenHarvest/internal/output"
)

// Config holds all harvester configuration.
type Config struct {
	// Domain to harvest. Subdomains are in scope.
	TargetDomain string `json:"target_domain" yaml:"target_domain"`

	// Seed URLs, fetched first and in order. Defaults to the domain root.
	SeedURLs []string `json:"seed_urls" yaml:"seed_urls"`

	// Fixed pause after every fetched page
	RequestDelaySeconds float64 `json:"request_delay_seconds" yaml:"request_delay_seconds"`

	// Page load timeout, before the render wait is added
	RequestTimeoutSeconds float64 `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Upper bound on the extra wait for fragment-routed pages
	RenderWaitSeconds float64 `json:"render_wait_seconds" yaml:"render_wait_seconds"`

	// Records buffered before a flush
	BatchFlushSize int `json:"batch_flush_size" yaml:"batch_flush_size"`

	// Successful fetches allowed per run
	MaxPagesPerRun int `json:"max_pages_per_run" yaml:"max_pages_per_run"`

	// Optional ceiling on fetch starts per second (0 = no ceiling)
	MaxRequestsPerSecond float64 `json:"max_requests_per_second" yaml:"max_requests_per_second"`

	// Dataset output
	Output output.Config `json:"output" yaml:"output"`

	// Checkpoint and resume files
	State StateConfig `json:"state" yaml:"state"`

	// Renderer settings
	Browser BrowserConfig `json:"browser" yaml:"browser"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// StateConfig locates the files that make a harvest resumable.
type StateConfig struct {
	// Processed URL log, one dedup key per line
	CheckpointFile string `json:"checkpoint_file" yaml:"checkpoint_file"`

	// bbolt file holding the pending queue and run totals (empty = disabled)
	StateFile string `json:"state_file" yaml:"state_file"`
}

// BrowserConfig holds the renderer settings exposed in the config file.
type BrowserConfig struct {
	Headless          bool              `json:"headless" yaml:"headless"`
	BinPath           string            `json:"bin_path" yaml:"bin_path"`
	UserAgent         string            `json:"user_agent" yaml:"user_agent"`
	Headers           map[string]string `json:"headers" yaml:"headers"`
	FragmentSelectors []string          `json:"fragment_selectors" yaml:"fragment_selectors"`
	IgnoreHTTPSErrors bool              `json:"ignore_https_errors" yaml:"ignore_https_errors"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestDelaySeconds:   3,
		RequestTimeoutSeconds: 30,
		RenderWaitSeconds:     5,
		BatchFlushSize:        output.DefaultFlushSize,
		MaxPagesPerRun:        500,
		Output: output.Config{
			Format:   output.FormatCSV,
			FilePath: "harvest_output.csv",
		},
		State: StateConfig{
			CheckpointFile: "processed_urls.log",
		},
		Browser: BrowserConfig{
			Headless:          true,
			FragmentSelectors: append([]string(nil), browser.DefaultFragmentSelectors...),
			IgnoreHTTPSErrors: true,
		},
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		config = DefaultConfig()
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	domain := strings.TrimSpace(c.TargetDomain)
	if domain == "" {
		return fmt.Errorf("target domain is required")
	}
	if strings.Contains(domain, "://") || strings.ContainsAny(domain, "/?#") {
		return fmt.Errorf("target domain must be a bare host name, got %q", c.TargetDomain)
	}

	if c.RequestDelaySeconds < 0 {
		return fmt.Errorf("request delay must not be negative")
	}

	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.RenderWaitSeconds < 0 {
		return fmt.Errorf("render wait must not be negative")
	}

	if c.BatchFlushSize < 1 {
		return fmt.Errorf("batch flush size must be at least 1")
	}

	if c.MaxPagesPerRun < 1 {
		return fmt.Errorf("max pages per run must be at least 1")
	}

	if c.MaxRequestsPerSecond < 0 {
		return fmt.Errorf("max requests per second must not be negative")
	}

	if c.Output.FilePath == "" {
		return fmt.Errorf("output file path is required")
	}

	switch strings.ToLower(c.Output.Format) {
	case "", output.FormatCSV, output.FormatJSONL, "json", output.FormatSQLite:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}

	return nil
}

// Seeds returns the configured seed URLs, or the domain root when none
// are set.
func (c *Config) Seeds() []string {
	var seeds []string
	for _, s := range c.SeedURLs {
		if s = strings.TrimSpace(s); s != "" {
			seeds = append(seeds, s)
		}
	}
	if len(seeds) == 0 && c.TargetDomain != "" {
		seeds = []string{"https://" + strings.TrimSpace(c.TargetDomain) + "/"}
	}
	return seeds
}

// RequestDelay returns the pause applied after each fetched page.
func (c *Config) RequestDelay() time.Duration {
	return seconds(c.RequestDelaySeconds)
}

// RenderWait returns the fragment wait bound.
func (c *Config) RenderWait() time.Duration {
	return seconds(c.RenderWaitSeconds)
}

// PageLoadTimeout returns the request timeout plus the render wait.
func (c *Config) PageLoadTimeout() time.Duration {
	return seconds(c.RequestTimeoutSeconds) + c.RenderWait()
}

// BrowserConfig builds the renderer configuration.
func (c *Config) BrowserConfig() browser.Config {
	cfg := browser.DefaultConfig()
	cfg.Headless = c.Browser.Headless
	cfg.BinPath = c.Browser.BinPath
	cfg.UserAgent = c.Browser.UserAgent
	cfg.Headers = c.Browser.Headers
	cfg.IgnoreHTTPSErrors = c.Browser.IgnoreHTTPSErrors
	cfg.PageLoadTimeout = c.PageLoadTimeout()
	cfg.RenderWait = c.RenderWait()
	if len(c.Browser.FragmentSelectors) > 0 {
		cfg.FragmentSelectors = c.Browser.FragmentSelectors
	}
	return cfg
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
