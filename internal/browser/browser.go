// Package browser provides the headless Chrome page renderer via Rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	harvesterrors "github.com/PentesterFlow/OpenHarvest/internal/errors"
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("browser is closed")

// DefaultFragmentSelectors are the content containers waited for on
// fragment-routed pages.
var DefaultFragmentSelectors = []string{
	"div.container-view",
	"router-view",
	"#content",
	".page-content",
}

// Config defines browser configuration.
type Config struct {
	Headless          bool              `json:"headless"`
	BinPath           string            `json:"bin_path"`
	UserAgent         string            `json:"user_agent"`
	Headers           map[string]string `json:"headers"`
	PageLoadTimeout   time.Duration     `json:"page_load_timeout"`
	RenderWait        time.Duration     `json:"render_wait"`
	FragmentSelectors []string          `json:"fragment_selectors"`
	IgnoreHTTPSErrors bool              `json:"ignore_https_errors"`
}

// DefaultConfig returns default browser configuration.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		PageLoadTimeout:   35 * time.Second,
		RenderWait:        5 * time.Second,
		FragmentSelectors: DefaultFragmentSelectors,
		IgnoreHTTPSErrors: true,
	}
}

// Browser wraps a Rod browser instance and renders one page at a time.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	config   Config
	mu       sync.Mutex
	closed   bool
}

// New launches Chrome and connects to it.
func New(config Config) (*Browser, error) {
	if config.PageLoadTimeout <= 0 {
		config.PageLoadTimeout = DefaultConfig().PageLoadTimeout
	}

	l := launcher.New().Headless(config.Headless)

	if config.BinPath != "" {
		l = l.Bin(config.BinPath)
	}

	if config.IgnoreHTTPSErrors {
		l = l.Set("ignore-certificate-errors", "true")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  browser,
		launcher: l,
		config:   config,
	}, nil
}

// Fetch navigates to rawURL and returns the rendered markup.
//
// Navigation, load and body wait share the page-load timeout. For URLs with
// a fragment it then waits up to RenderWait for one of the fragment
// selectors to become visible; not finding one is not an error.
func (b *Browser) Fetch(ctx context.Context, rawURL string) (string, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return "", ErrClosed
	}
	b.mu.Unlock()

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", harvesterrors.NewBrowserError(rawURL, "create_page", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	// Set user agent
	if b.config.UserAgent != "" {
		_ = proto.NetworkSetUserAgentOverride{
			UserAgent: b.config.UserAgent,
		}.Call(page)
	}

	// Set extra headers
	if len(b.config.Headers) > 0 {
		networkHeaders := make(proto.NetworkHeaders)
		for k, v := range b.config.Headers {
			networkHeaders[k] = gson.New(v)
		}
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: networkHeaders}.Call(page)
	}

	loading := page.Timeout(b.config.PageLoadTimeout)

	if err := loading.Navigate(rawURL); err != nil {
		return "", classify(rawURL, "navigate", err)
	}

	if err := loading.WaitLoad(); err != nil {
		return "", classify(rawURL, "wait_load", err)
	}

	if _, err := loading.Element("body"); err != nil {
		return "", classify(rawURL, "wait_body", err)
	}

	if HasFragment(rawURL) {
		b.waitForFragmentContent(page)
	}

	html, err := loading.HTML()
	if err != nil {
		return "", classify(rawURL, "read_html", err)
	}

	return html, nil
}

// waitForFragmentContent waits until any fragment selector is visible or
// RenderWait elapses, whichever comes first.
func (b *Browser) waitForFragmentContent(page *rod.Page) bool {
	if len(b.config.FragmentSelectors) == 0 || b.config.RenderWait <= 0 {
		return false
	}

	race := page.Timeout(b.config.RenderWait).Race()
	for _, selector := range b.config.FragmentSelectors {
		race = race.Element(selector).Handle(func(e *rod.Element) error {
			return e.WaitVisible()
		})
	}

	_, err := race.Do()
	return err == nil
}

// HasFragment reports whether rawURL carries a non-empty fragment.
func HasFragment(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Contains(rawURL, "#")
	}
	return u.Fragment != ""
}

// classify turns a Rod error into a FetchError.
func classify(rawURL, operation string, err error) error {
	var navErr *rod.ErrNavigation
	if errors.As(err, &navErr) {
		switch {
		case strings.Contains(navErr.Reason, "ERR_NAME_NOT_RESOLVED"):
			return harvesterrors.NewDNSError(rawURL, operation, err)
		case strings.Contains(navErr.Reason, "ERR_TIMED_OUT"):
			return harvesterrors.NewTimeoutError(rawURL, operation, err)
		default:
			return harvesterrors.NewNavigationError(rawURL, operation, err)
		}
	}

	fetchErr := harvesterrors.Categorize(err, rawURL)
	if fetchErr.Type == harvesterrors.Unknown {
		fetchErr = harvesterrors.NewBrowserError(rawURL, operation, err)
	}
	fetchErr.Operation = operation
	return fetchErr
}

// Close closes the browser and stops the Chrome process.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
