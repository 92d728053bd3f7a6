package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
)

// ============================================================================
// Formatting Tests
// ============================================================================

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total int
		want        int
	}{
		{0, 500, 0},
		{250, 500, 50},
		{499, 500, 99},
		{500, 500, 100},
		{600, 500, 100},
		{5, 0, 0},
		{-1, 10, 0},
	}

	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"seconds", 42 * time.Second, "42s"},
		{"minutes", 3*time.Minute + 5*time.Second, "3m05s"},
		{"hours", 2*time.Hour + 4*time.Minute + 9*time.Second, "2h04m09s"},
		{"rounds", 1499 * time.Millisecond, "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

// ============================================================================
// Display Tests
// ============================================================================

func TestDisplayUpdate(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.Start("example.com", 10)

	d.Update(&metrics.Snapshot{FetchesTotal: 5, FailuresTotal: 1, QueueDepth: 7, RecordsTotal: 12})

	out := buf.String()
	for _, want := range []string{" 50%", "Pages: 5", "Failed: 1", "Queue: 7", "Records: 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestDisplayIgnoresUpdatesWhenNotRunning(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Update(&metrics.Snapshot{FetchesTotal: 1})
	if buf.Len() != 0 {
		t.Errorf("update before Start wrote %q", buf.String())
	}

	d.Start("example.com", 10)
	d.Stop()
	buf.Reset()

	d.Update(&metrics.Snapshot{FetchesTotal: 1})
	d.Update(nil)
	d.Stop()
	if buf.Len() != 0 {
		t.Errorf("update after Stop wrote %q", buf.String())
	}
}

func TestDisplayTrack(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.Start("example.com", 4)

	collector := metrics.New()
	collector.RecordFetch(10*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Track(ctx, time.Hour, collector.Snapshot)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Track did not return after cancel")
	}

	out := buf.String()
	if !strings.Contains(out, "Pages: 1") {
		t.Errorf("output %q should show the final snapshot", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Track should stop the display")
	}
}
