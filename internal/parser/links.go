package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/OpenHarvest/internal/scope"
)

// LinkDiscoverer finds crawlable in-domain links on a page.
type LinkDiscoverer struct {
	scope *scope.Checker
}

// NewLinkDiscoverer creates a discoverer for the target domain.
func NewLinkDiscoverer(domain string) *LinkDiscoverer {
	return &LinkDiscoverer{scope: scope.NewChecker(domain)}
}

// Discover returns the absolute in-domain page links in markup, resolved
// against pageURL, with the query string and trailing slashes removed. The
// scheme, host and fragment are kept as written. Links sharing a scope.LinkKey are reported once, as
// first seen, in document order.
func (d *LinkDiscoverer) Discover(markup, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := d.resolve(base, strings.TrimSpace(href))
		if !ok {
			return
		}

		key := scope.LinkKey(link)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, link)
	})

	return links, nil
}

// resolve turns href into an absolute URL and reports whether it is a
// crawlable page on the target domain.
func (d *LinkDiscoverer) resolve(base *url.URL, href string) (string, bool) {
	if href == "" || href == "#" {
		return "", false
	}

	// Skip javascript: and mailto: URLs
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !d.scope.HostInScope(resolved.Hostname()) {
		return "", false
	}
	if scope.HasExcludedExtension(resolved.Path) {
		return "", false
	}

	resolved.RawQuery = ""
	resolved.ForceQuery = false
	path := strings.TrimRight(resolved.Path, "/")
	if path == "" {
		path = "/"
	}
	resolved.Path = path
	resolved.RawPath = ""

	return resolved.String(), true
}
