// Package scope implements the crawl boundary predicate: deciding
// whether a candidate URL belongs to the same open directory as the
// seed. Comparison is by host plus overlapping path prefix rather than
// registrable domain alone, since a directory listing's boundary is a
// path within a host, not the whole host.
package scope

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// specialHosts are exempt from the path-prefix check because their file
// URLs live on a storage host different from the listing host. Matching
// is by hostname suffix so subdomains are covered.
var specialHosts = []string{
	"drive.google.com",
	"docs.google.com",
	"googleusercontent.com",
	"blitzfiles.com",
	"blitzcloud.io",
}

// IsSpecialHost reports whether host is a recognized special host that
// bypasses the scope predicate.
func IsSpecialHost(host string) bool {
	host = strings.ToLower(host)
	for _, sh := range specialHosts {
		if host == sh || strings.HasSuffix(host, "."+sh) {
			return true
		}
	}
	return false
}

// InScope reports whether candidate lies within the directory tree
// rooted at base: true iff the two URLs are byte-equal, or they share a
// host and one's path is a prefix of the other's modulo a trailing
// filename segment.
func InScope(base, candidate *url.URL) bool {
	if base.String() == candidate.String() {
		return true
	}
	if !sameHost(base, candidate) {
		return IsSpecialHost(candidate.Hostname())
	}

	basePath := stripFilename(base.Path)
	candPath := stripFilename(candidate.Path)

	return strings.HasPrefix(candPath, basePath) || strings.HasPrefix(basePath, candPath)
}

func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname())
}

// stripFilename removes a trailing filename segment from a URL path:
// any non-empty last segment without a trailing '/' is treated as a
// filename for this purpose, whether or not it has a dot extension.
func stripFilename(path string) string {
	if path == "" || strings.HasSuffix(path, "/") {
		return ensureTrailingSlash(path)
	}
	idx := strings.LastIndex(path, "/")
	last := path[idx+1:]
	if last == "" {
		return ensureTrailingSlash(path)
	}
	// Treated as a filename whether or not it has a dot extension.
	return ensureTrailingSlash(path[:idx+1])
}

func ensureTrailingSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

// EffectiveDomain extracts the registrable domain (eTLD+1) for the
// coarser cross-site comparisons used by the reporter and the file drop
// rule in AddProcessed, which treats a different host than the root as
// cross-site.
func EffectiveDomain(host string) (string, error) {
	return publicsuffix.EffectiveTLDPlusOne(host)
}
