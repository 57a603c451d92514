package livesearch

import (
	"testing"

	"github.com/theoseek/theoseek/internal/livesearch/discovery"
)

func TestCanonicalURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.jstor.org/x/", "https://jstor.org/x"},
		{"http://jstor.org/x", "https://jstor.org/x"},
		{"https://jstor.org/x#frag", "https://jstor.org/x"},
		{"HTTPS://JSTOR.ORG/X", "https://jstor.org/x"},
		{"https://example.com/path?q=1&r=2", "https://example.com/path?q=1&r=2"},
		{"https://example.com/", "https://example.com"},
	}
	for _, c := range cases {
		if got := CanonicalURL(c.in); got != c.want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDedupeByCanonicalURL(t *testing.T) {
	results := []discovery.Result{
		{URL: "https://www.jstor.org/x/", Title: "first"},
		{URL: "http://jstor.org/x", Title: "second"},
		{URL: "https://jstor.org/x#frag", Title: "third"},
		{URL: "https://example.com/y", Title: "other"},
	}
	deduped := dedupeByCanonicalURL(results)
	if len(deduped) != 2 {
		t.Fatalf("deduped to %d entries, want 2: %+v", len(deduped), deduped)
	}
	if deduped[0].Title != "first" {
		t.Errorf("first occurrence should win, got %q", deduped[0].Title)
	}
	if deduped[0].URL != "https://jstor.org/x" {
		t.Errorf("kept URL not canonicalized: %q", deduped[0].URL)
	}
}
