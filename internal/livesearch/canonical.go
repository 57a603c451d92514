package livesearch

import (
	"net/url"
	"strings"

	"github.com/theoseek/theoseek/internal/livesearch/discovery"
)

// CanonicalURL normalises a URL for deduplication: lowercase, https
// scheme, no www. prefix, no trailing slash, no fragment. Path and query
// are preserved. Unparseable input is returned trimmed and lowercased but
// otherwise untouched.
func CanonicalURL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimSuffix(u.Path, "/")
	canonical := "https://" + host + path
	if u.RawQuery != "" {
		canonical += "?" + u.RawQuery
	}
	return canonical
}

// dedupeByCanonicalURL keeps the first discovery result per canonical URL
// and rewrites each kept result's URL to its canonical form.
func dedupeByCanonicalURL(results []discovery.Result) []discovery.Result {
	seen := make(map[string]struct{}, len(results))
	deduped := make([]discovery.Result, 0, len(results))
	for _, r := range results {
		canonical := CanonicalURL(r.URL)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		r.URL = canonical
		deduped = append(deduped, r)
	}
	return deduped
}
