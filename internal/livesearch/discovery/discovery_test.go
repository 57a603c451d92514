package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func resultDiv(dest, title, snippet string) string {
	return fmt.Sprintf(`
		<div class="result results_links web-result">
			<div class="result__body">
				<a class="result__a" href="//duckduckgo.com/l/?uddg=%s&amp;rut=abc">%s</a>
				<a class="result__snippet" href="//duckduckgo.com/l/?uddg=%s">%s</a>
			</div>
		</div>`, url.QueryEscape(dest), title, url.QueryEscape(dest), snippet)
}

func TestSearchParsesResults(t *testing.T) {
	markup := "<html><body>" +
		resultDiv("https://plato.stanford.edu/entries/aquinas/", "Aquinas (SEP)", "Thomas Aquinas entry") +
		resultDiv("https://example.com/essay", "An Essay", "Some essay text") +
		"</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "aquinas" {
			t.Errorf("query param = %q", got)
		}
		fmt.Fprint(w, markup)
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "aquinas", 10)

	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	if results[0].URL != "https://plato.stanford.edu/entries/aquinas/" {
		t.Errorf("URL = %q; uddg not unwrapped", results[0].URL)
	}
	if results[0].Title != "Aquinas (SEP)" {
		t.Errorf("Title = %q", results[0].Title)
	}
	if results[0].Snippet != "Thomas Aquinas entry" {
		t.Errorf("Snippet = %q", results[0].Snippet)
	}
}

func TestSearchDecodesEntities(t *testing.T) {
	markup := "<html><body>" +
		resultDiv("https://example.com/x", "Faith &amp; Reason", "Anselm&#39;s argument") +
		"</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, markup)
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "anselm", 10)
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Title != "Faith & Reason" {
		t.Errorf("Title = %q; entities not decoded", results[0].Title)
	}
	if results[0].Snippet != "Anselm's argument" {
		t.Errorf("Snippet = %q; entities not decoded", results[0].Snippet)
	}
}

func TestSearchRejectsNonHTTPDestinations(t *testing.T) {
	markup := "<html><body>" +
		resultDiv("ftp://files.example.com/doc", "FTP", "nope") +
		resultDiv("https://example.com/ok", "OK", "yes") +
		"</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, markup)
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "q", 10)
	if len(results) != 1 || results[0].URL != "https://example.com/ok" {
		t.Errorf("results = %+v, want only the https destination", results)
	}
}

func TestSearchSuppressesDuplicates(t *testing.T) {
	markup := "<html><body>" +
		resultDiv("https://example.com/same", "One", "a") +
		resultDiv("https://example.com/same", "Two", "b") +
		"</body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, markup)
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "q", 10)
	if len(results) != 1 {
		t.Errorf("results = %+v, want duplicates suppressed", results)
	}
}

func TestSearchPaginatesViaNextForm(t *testing.T) {
	var postSeen bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, "<html><body>"+
				resultDiv("https://example.com/one", "One", "a")+
				`<div class="nav-link">
					<form action="/html/" method="post">
						<input type="hidden" name="q" value="aquinas">
						<input type="hidden" name="s" value="30">
						<input type="hidden" name="dc" value="31">
						<input type="submit" class="btn" value="Next">
					</form>
				</div>`+
				"</body></html>")
		case http.MethodPost:
			postSeen = true
			if err := r.ParseForm(); err != nil {
				t.Error(err)
			}
			if r.PostForm.Get("s") != "30" {
				t.Errorf("hidden field s = %q", r.PostForm.Get("s"))
			}
			fmt.Fprint(w, "<html><body>"+
				resultDiv("https://example.com/two", "Two", "b")+
				"</body></html>")
		}
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "aquinas", 10)
	if !postSeen {
		t.Error("second page was never requested")
	}
	if len(results) != 2 {
		t.Errorf("results = %+v, want 2 across pages", results)
	}
}

func TestSearchStopsAtMaxResults(t *testing.T) {
	var postSeen bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			postSeen = true
		}
		fmt.Fprint(w, "<html><body>"+
			resultDiv("https://example.com/a", "A", "a")+
			resultDiv("https://example.com/b", "B", "b")+
			`<form action="/html/" method="post">
				<input type="hidden" name="q" value="x">
				<input type="submit" value="Next">
			</form>`+
			"</body></html>")
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	results := s.Search(context.Background(), "q", 2)
	if len(results) != 2 {
		t.Errorf("results = %+v, want capped at 2", results)
	}
	if postSeen {
		t.Error("pagination should stop once maxResults is reached")
	}
}

func TestSearchFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusForbidden)
	}))
	defer server.Close()

	s := NewScraperWithEndpoint(server.Client(), server.URL+"/html/")
	if results := s.Search(context.Background(), "q", 10); len(results) != 0 {
		t.Errorf("results = %+v, want empty on failure", results)
	}
}
