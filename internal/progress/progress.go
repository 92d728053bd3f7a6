// Package progress renders a one-line progress bar for a running harvest.
package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/OpenHarvest/internal/metrics"
)

const barWidth = 30

// Display redraws a single status line on a terminal.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	started bool
	stopped bool

	startTime time.Time
	domain    string
	maxPages  int

	lastLine string
}

// New creates a progress display writing to out.
func New(out io.Writer) *Display {
	return &Display{out: out}
}

// Start begins the display. maxPages is the per-run fetch cap the bar
// fills towards.
func (d *Display) Start(domain string, maxPages int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.startTime = time.Now()
	d.domain = domain
	d.maxPages = maxPages
}

// Update redraws the line from a metrics snapshot.
func (d *Display) Update(s *metrics.Snapshot) {
	if s == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped {
		return
	}

	line := "\r" + d.render(s, time.Since(d.startTime))

	// Clear previous line when the new one is shorter
	if len(line) < len(d.lastLine) {
		fmt.Fprint(d.out, "\r"+strings.Repeat(" ", len(d.lastLine)))
	}
	fmt.Fprint(d.out, line)
	d.lastLine = line
}

func (d *Display) render(s *metrics.Snapshot, elapsed time.Duration) string {
	pct := Percent(int(s.FetchesTotal), d.maxPages)
	filled := pct * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("[%s] %3d%% | Pages: %d | Failed: %d | Queue: %d | Records: %d | %.1f p/min | %s",
		bar, pct, s.FetchesTotal, s.FailuresTotal, s.QueueDepth, s.RecordsTotal,
		s.FetchesPerMinute, FormatDuration(elapsed))
}

// Stop ends the display and moves past the bar.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}

	d.stopped = true
	fmt.Fprintln(d.out)
}

// Track redraws the display from source every interval until ctx is done,
// then stops it.
func (d *Display) Track(ctx context.Context, interval time.Duration, source func() *metrics.Snapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Update(source())
			return
		case <-ticker.C:
			d.Update(source())
		}
	}
}

// Percent returns done/total as a whole percentage clamped to [0, 100].
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
