package scholarly

import "testing"

func TestIsScholarlyHost(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"jstor.org", true},
		{"www.jstor.org", true},
		{"daily.jstor.org", true},
		{"plato.stanford.edu", true},
		{"en.wikipedia.org", true},
		{"fr.wikipedia.org", false},
		{"notjstor.org", false},
		{"jstor.org.evil.com", false},
		{"example.com", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsScholarlyHost(c.host); got != c.want {
			t.Errorf("IsScholarlyHost(%q) = %v, want %v", c.host, got, c.want)
		}
	}
}

func TestIsScholarlyURL(t *testing.T) {
	if !IsScholarlyURL("https://www.jstor.org/stable/123") {
		t.Error("jstor URL should be scholarly")
	}
	if IsScholarlyURL("https://example.com/essay") {
		t.Error("example.com should not be scholarly")
	}
}

func TestDomain(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.jstor.org/stable/123", "jstor.org"},
		{"https://plato.stanford.edu/entries/aquinas/", "plato.stanford.edu"},
		{"http://Example.COM/x", "example.com"},
	}
	for _, c := range cases {
		if got := Domain(c.in); got != c.want {
			t.Errorf("Domain(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
