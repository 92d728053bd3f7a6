package scope

import (
	"net/url"
	"strings"
)

// The two canonical forms below intentionally differ: DedupKey strips a
// leading "www." and keeps the fragment, LinkKey keeps the host untouched and
// drops the fragment. Frontier dedup and checkpoint membership use DedupKey;
// per-page link dedup uses LinkKey.

// DedupKey returns the canonical key used for processed-set and checkpoint membership.
// The scheme is forced to https, the query string is dropped, an empty path
// becomes "/", trailing slashes are removed from non-root paths, the host is
// lowercased with every leading "www." removed, and the fragment is retained.
// Unparseable input is returned trimmed.
func DedupKey(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	parsed.Scheme = "https"
	parsed.Host = trimWWW(strings.ToLower(parsed.Host))
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	setCanonicalPath(parsed)

	return parsed.String()
}

// LinkKey returns the canonical key used to deduplicate links found on one page.
// It shares the scheme, query and path rules of DedupKey but leaves the host
// as written and drops the fragment.
func LinkKey(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	parsed.Scheme = "https"
	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	setCanonicalPath(parsed)

	return parsed.String()
}

func trimWWW(host string) string {
	for strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return host
}

// setCanonicalPath collapses an empty path to "/" and strips trailing slashes
// from non-root paths.
func setCanonicalPath(u *url.URL) {
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		path = "/"
	}
	u.Path = path
	u.RawPath = ""
}
