package harvester

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// =============================================================================
// DefaultConfig Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if config.RequestDelaySeconds != 3 {
		t.Errorf("RequestDelaySeconds = %v, want 3", config.RequestDelaySeconds)
	}
	if config.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds = %v, want 30", config.RequestTimeoutSeconds)
	}
	if config.RenderWaitSeconds != 5 {
		t.Errorf("RenderWaitSeconds = %v, want 5", config.RenderWaitSeconds)
	}
	if config.BatchFlushSize != 5 {
		t.Errorf("BatchFlushSize = %d, want 5", config.BatchFlushSize)
	}
	if config.MaxPagesPerRun != 500 {
		t.Errorf("MaxPagesPerRun = %d, want 500", config.MaxPagesPerRun)
	}
	if config.Output.Format != "csv" || config.Output.FilePath != "harvest_output.csv" {
		t.Errorf("Output = %+v, want csv to harvest_output.csv", config.Output)
	}
	if config.State.CheckpointFile != "processed_urls.log" {
		t.Errorf("CheckpointFile = %q, want processed_urls.log", config.State.CheckpointFile)
	}
	if config.State.StateFile != "" {
		t.Errorf("StateFile = %q, want disabled", config.State.StateFile)
	}
	if !config.Browser.Headless {
		t.Error("Browser.Headless should be true")
	}
}

// =============================================================================
// Derived values
// =============================================================================

func TestConfig_Durations(t *testing.T) {
	config := DefaultConfig()

	if got := config.RequestDelay(); got != 3*time.Second {
		t.Errorf("RequestDelay() = %v, want 3s", got)
	}
	if got := config.RenderWait(); got != 5*time.Second {
		t.Errorf("RenderWait() = %v, want 5s", got)
	}
	if got := config.PageLoadTimeout(); got != 35*time.Second {
		t.Errorf("PageLoadTimeout() = %v, want 35s", got)
	}

	config.RequestDelaySeconds = 0.5
	if got := config.RequestDelay(); got != 500*time.Millisecond {
		t.Errorf("RequestDelay() = %v, want 500ms", got)
	}
}

func TestConfig_Seeds(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		seeds  []string
		want   []string
	}{
		{
			name:   "explicit seeds kept in order",
			domain: "example.com",
			seeds:  []string{"https://example.com/b", " https://example.com/a "},
			want:   []string{"https://example.com/b", "https://example.com/a"},
		},
		{
			name:   "defaults to domain root",
			domain: "example.com",
			want:   []string{"https://example.com/"},
		},
		{
			name:   "blank seeds ignored",
			domain: "example.com",
			seeds:  []string{"", "  "},
			want:   []string{"https://example.com/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.TargetDomain = tt.domain
			config.SeedURLs = tt.seeds

			if got := config.Seeds(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Seeds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_BrowserConfig(t *testing.T) {
	config := DefaultConfig()
	config.Browser.UserAgent = "HarvestBot/1.0"
	config.Browser.Headers = map[string]string{"Accept-Language": "id"}
	config.Browser.FragmentSelectors = []string{"#app-view"}

	bc := config.BrowserConfig()

	if bc.PageLoadTimeout != 35*time.Second {
		t.Errorf("PageLoadTimeout = %v, want 35s", bc.PageLoadTimeout)
	}
	if bc.RenderWait != 5*time.Second {
		t.Errorf("RenderWait = %v, want 5s", bc.RenderWait)
	}
	if bc.UserAgent != "HarvestBot/1.0" {
		t.Errorf("UserAgent = %q", bc.UserAgent)
	}
	if bc.Headers["Accept-Language"] != "id" {
		t.Errorf("Headers = %v", bc.Headers)
	}
	if !reflect.DeepEqual(bc.FragmentSelectors, []string{"#app-view"}) {
		t.Errorf("FragmentSelectors = %v", bc.FragmentSelectors)
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing domain", func(c *Config) { c.TargetDomain = "" }, true},
		{"domain with scheme", func(c *Config) { c.TargetDomain = "https://example.com" }, true},
		{"domain with path", func(c *Config) { c.TargetDomain = "example.com/faq" }, true},
		{"negative delay", func(c *Config) { c.RequestDelaySeconds = -1 }, true},
		{"zero delay allowed", func(c *Config) { c.RequestDelaySeconds = 0 }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeoutSeconds = 0 }, true},
		{"negative render wait", func(c *Config) { c.RenderWaitSeconds = -1 }, true},
		{"zero batch size", func(c *Config) { c.BatchFlushSize = 0 }, true},
		{"zero max pages", func(c *Config) { c.MaxPagesPerRun = 0 }, true},
		{"negative rate", func(c *Config) { c.MaxRequestsPerSecond = -1 }, true},
		{"missing output path", func(c *Config) { c.Output.FilePath = "" }, true},
		{"jsonl output", func(c *Config) { c.Output.Format = "jsonl" }, false},
		{"sqlite output", func(c *Config) { c.Output.Format = "sqlite" }, false},
		{"unknown output", func(c *Config) { c.Output.Format = "xlsx" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.TargetDomain = "example.com"
			tt.modify(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// File Tests
// =============================================================================

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	content := `target_domain: example.com
seed_urls:
  - https://example.com/faq
request_delay_seconds: 1.5
max_pages_per_run: 20
output:
  format: jsonl
  file_path: out.jsonl
state:
  checkpoint_file: seen.log
  state_file: harvest.db
browser:
  user_agent: HarvestBot/1.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if config.TargetDomain != "example.com" {
		t.Errorf("TargetDomain = %q", config.TargetDomain)
	}
	if !reflect.DeepEqual(config.SeedURLs, []string{"https://example.com/faq"}) {
		t.Errorf("SeedURLs = %v", config.SeedURLs)
	}
	if config.RequestDelaySeconds != 1.5 {
		t.Errorf("RequestDelaySeconds = %v, want 1.5", config.RequestDelaySeconds)
	}
	if config.MaxPagesPerRun != 20 {
		t.Errorf("MaxPagesPerRun = %d, want 20", config.MaxPagesPerRun)
	}
	if config.Output.Format != "jsonl" || config.Output.FilePath != "out.jsonl" {
		t.Errorf("Output = %+v", config.Output)
	}
	if config.State.StateFile != "harvest.db" {
		t.Errorf("StateFile = %q", config.State.StateFile)
	}
	if config.Browser.UserAgent != "HarvestBot/1.0" {
		t.Errorf("UserAgent = %q", config.Browser.UserAgent)
	}

	// Unset fields keep their defaults
	if config.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds = %v, want default 30", config.RequestTimeoutSeconds)
	}
	if config.BatchFlushSize != 5 {
		t.Errorf("BatchFlushSize = %d, want default 5", config.BatchFlushSize)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.json")
	content := `{"target_domain": "example.org", "batch_flush_size": 10}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if config.TargetDomain != "example.org" {
		t.Errorf("TargetDomain = %q", config.TargetDomain)
	}
	if config.BatchFlushSize != 10 {
		t.Errorf("BatchFlushSize = %d, want 10", config.BatchFlushSize)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() should fail for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("target_domain: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should fail for malformed content")
	}
}

func TestConfig_SaveToFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"harvest.yaml", "harvest.json"} {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			config.TargetDomain = "example.com"
			config.SeedURLs = []string{"https://example.com/a"}
			config.MaxPagesPerRun = 42

			path := filepath.Join(dir, name)
			if err := config.SaveToFile(path); err != nil {
				t.Fatalf("SaveToFile() error = %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile() error = %v", err)
			}
			if loaded.TargetDomain != "example.com" || loaded.MaxPagesPerRun != 42 {
				t.Errorf("loaded = %+v", loaded)
			}
			if !reflect.DeepEqual(loaded.SeedURLs, config.SeedURLs) {
				t.Errorf("SeedURLs = %v, want %v", loaded.SeedURLs, config.SeedURLs)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	config := DefaultConfig()
	config.TargetDomain = "example.com"
	config.Browser.Headers = map[string]string{"X-Test": "1"}

	clone := config.Clone()
	clone.Browser.Headers["X-Test"] = "2"
	clone.TargetDomain = "other.org"

	if config.Browser.Headers["X-Test"] != "1" {
		t.Error("Clone() should deep copy headers")
	}
	if config.TargetDomain != "example.com" {
		t.Error("Clone() should not share fields")
	}
}
