// Package scope provides URL canonicalisation and target-domain filtering for the harvester.
package scope

import (
	"net/url"
	"strings"
)

// Checker decides whether a URL belongs to the target domain.
type Checker struct {
	domain string
}

// NewChecker creates a checker for the given target domain.
// A URL is in scope when its host equals the domain or is a subdomain of it.
func NewChecker(domain string) *Checker {
	return &Checker{domain: strings.ToLower(strings.TrimSpace(domain))}
}

// Domain returns the target domain.
func (c *Checker) Domain() string {
	return c.domain
}

// InScope reports whether rawURL points at the target domain or one of its subdomains.
func (c *Checker) InScope(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return c.HostInScope(parsed.Hostname())
}

// HostInScope reports whether host is the target domain or a subdomain of it.
func (c *Checker) HostInScope(host string) bool {
	if c.domain == "" {
		return false
	}
	host = strings.ToLower(host)
	return host == c.domain || strings.HasSuffix(host, "."+c.domain)
}

// excludedExtensions lists path suffixes that never point at a crawlable page.
var excludedExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".zip", ".doc", ".docx",
	".xls", ".xlsx", ".ppt", ".pptx", ".mp3", ".mp4", ".avi", ".exe",
	".dmg", ".pkg", ".rss", ".xml", ".css", ".js", ".json", ".txt",
	".woff", ".ttf", ".svg", ".ico",
}

// HasExcludedExtension reports whether path ends in a known non-page resource extension.
func HasExcludedExtension(path string) bool {
	path = strings.ToLower(path)
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
