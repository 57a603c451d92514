package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theoseek/theoseek/pkg/config"
)

func testClient() *Client {
	return NewClient(config.FetchConfig{
		UserAgent:    "theoseek-test/1.0",
		Timeout:      5 * time.Second,
		MaxRedirects: 5,
	}, nil)
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "theoseek-test/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		if accept := r.Header.Get("Accept"); !strings.Contains(accept, "text/html") {
			t.Errorf("Accept = %q", accept)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>De Anima</title></head><body><p>on the soul</p></body></html>`)
	}))
	defer server.Close()

	result := testClient().Fetch(context.Background(), server.URL)
	if !result.Success {
		t.Fatalf("fetch failed: %s", result.Error)
	}
	if result.Title != "De Anima" {
		t.Errorf("Title = %q", result.Title)
	}
	if !strings.Contains(result.Text, "on the soul") {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestFetchNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	result := testClient().Fetch(context.Background(), server.URL)
	if result.Success {
		t.Fatal("404 fetch reported success")
	}
	if !strings.Contains(result.Error, "404") {
		t.Errorf("Error = %q, want status mention", result.Error)
	}
}

func TestFetchRejectsNonHTMLContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer server.Close()

	result := testClient().Fetch(context.Background(), server.URL)
	if result.Success {
		t.Fatal("PDF fetch reported success")
	}
	if !strings.Contains(result.Error, "content type") {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestFetchAcceptsPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "plain but indexable")
	}))
	defer server.Close()

	result := testClient().Fetch(context.Background(), server.URL)
	if !result.Success {
		t.Fatalf("text/plain fetch failed: %s", result.Error)
	}
}

func TestFetchInvalidURLFails(t *testing.T) {
	result := testClient().Fetch(context.Background(), "not a url")
	if result.Success {
		t.Fatal("invalid URL reported success")
	}
}

func TestFetchTimeoutBecomesFailedResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, "<html><body>late</body></html>")
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	result := testClient().Fetch(ctx, server.URL)
	if result.Success {
		t.Fatal("timed-out fetch reported success")
	}
	if result.Error == "" {
		t.Error("timed-out fetch should carry an error string")
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/end", http.StatusFound)
		case "/end":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><head><title>Arrived</title></head><body><a href="rel">x</a></body></html>`)
		}
	}))
	defer target.Close()

	result := testClient().Fetch(context.Background(), target.URL+"/start")
	if !result.Success {
		t.Fatalf("redirected fetch failed: %s", result.Error)
	}
	if result.Title != "Arrived" {
		t.Errorf("Title = %q", result.Title)
	}
	// Relative links resolve against the post-redirect URL.
	if len(result.Links) != 1 || !strings.HasSuffix(result.Links[0], "/rel") {
		t.Errorf("Links = %v", result.Links)
	}
}

func TestFetchHonoursRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>open</body></html>")
	}))
	defer server.Close()

	cfg := config.FetchConfig{UserAgent: "theoseek-test/1.0", Timeout: 5 * time.Second}
	robots := NewRobots(server.Client(), cfg.UserAgent, time.Second)
	client := NewClient(cfg, robots)

	blocked := client.Fetch(context.Background(), server.URL+"/private/page")
	if blocked.Success {
		t.Fatal("robots-disallowed fetch reported success")
	}
	if !strings.Contains(blocked.Error, "robots") {
		t.Errorf("Error = %q", blocked.Error)
	}
	allowed := client.Fetch(context.Background(), server.URL+"/public/page")
	if !allowed.Success {
		t.Fatalf("allowed fetch failed: %s", allowed.Error)
	}
}
