// Package scholarly classifies result hosts against a fixed set of known
// scholarly theology and philosophy domains. Matching is exact or by
// suffix, so subdomains of a listed domain qualify.
package scholarly

import (
	"net/url"
	"strings"
)

// BoostFactor is the ranking multiplier applied to scholarly domains.
const BoostFactor = 1.5

var domains = map[string]struct{}{
	"plato.stanford.edu":    {},
	"iep.utm.edu":           {},
	"jstor.org":             {},
	"academia.edu":          {},
	"philpapers.org":        {},
	"scholar.google.com":    {},
	"arxiv.org":             {},
	"doi.org":               {},
	"newadvent.org":         {},
	"corpusthomisticum.org": {},
	"dhspriory.org":         {},
	"aquinas.cc":            {},
	"ccel.org":              {},
	"fordham.edu":           {},
	"orthodoxwiki.org":      {},
	"carm.org":              {},
	"monergism.com":         {},
	"theopedia.com":         {},
	"britannica.com":        {},
	"en.wikipedia.org":      {},
}

// IsScholarlyHost reports whether host is a listed scholarly domain or a
// subdomain of one.
func IsScholarlyHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if _, ok := domains[host]; ok {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// IsScholarlyURL reports whether rawURL's host is scholarly.
func IsScholarlyURL(rawURL string) bool {
	return IsScholarlyHost(Domain(rawURL))
}

// Domain returns rawURL's host with any leading "www." stripped, or ""
// when the URL does not parse.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
