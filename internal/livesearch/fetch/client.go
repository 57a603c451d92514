// Package fetch retrieves candidate pages for the live pipeline. Failures
// are recorded per page, never raised: a timeout, a bad status, or a
// non-HTML payload yields a failed Result and the pipeline moves on.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theoseek/theoseek/internal/livesearch/extract"
	"github.com/theoseek/theoseek/pkg/config"
)

// Result is the outcome of fetching one candidate URL.
type Result struct {
	URL     string
	Title   string
	Text    string
	Links   []string
	Success bool
	Error   string
}

// Client fetches and extracts pages with a shared http.Client. An optional
// robots checker can veto URLs before any request is made.
type Client struct {
	http      *http.Client
	userAgent string
	robots    *Robots
	logger    *slog.Logger
}

// NewClient builds a fetch client from config. robots may be nil.
func NewClient(cfg config.FetchConfig, robots *Robots) *Client {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		robots:    robots,
		logger:    slog.Default().With("component", "page-fetch"),
	}
}

// Fetch retrieves rawURL and extracts its content. The caller bounds the
// request through ctx; a deadline converts into a failed Result.
func (c *Client) Fetch(ctx context.Context, rawURL string) *Result {
	result := &Result{URL: rawURL}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		result.Error = fmt.Sprintf("invalid url %q", rawURL)
		return result
	}

	if c.robots != nil && !c.robots.Allowed(ctx, parsed) {
		result.Error = "disallowed by robots.txt"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		result.Error = fmt.Sprintf("building request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Error = fmt.Sprintf("unexpected status %s", resp.Status)
		return result
	}
	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		result.Error = fmt.Sprintf("unsupported content type %q", contentType)
		return result
	}

	page, err := extract.Parse(resp.Body, resp.Request.URL)
	if err != nil {
		result.Error = fmt.Sprintf("parsing page: %v", err)
		return result
	}

	result.Title = page.Title
	result.Text = page.Text
	result.Links = page.Links
	result.Success = true
	return result
}

// isHTMLContentType accepts text/* and anything */html (xhtml included).
func isHTMLContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return strings.HasPrefix(mediaType, "text/") || strings.Contains(mediaType, "html")
}
