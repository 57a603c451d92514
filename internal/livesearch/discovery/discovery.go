// Package discovery finds candidate URLs for a query by scraping the
// DuckDuckGo HTML endpoint. Results carry the destination URL, the result
// title, and the engine-provided snippet. Pagination goes at most one page
// deep, by re-submitting the hidden fields of the "Next" form.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DefaultEndpoint is the DuckDuckGo HTML search endpoint.
const DefaultEndpoint = "https://html.duckduckgo.com/html/"

// Desktop-browser headers; the HTML endpoint serves an empty shell to
// unknown agents.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHTML       = "text/html"
	acceptLanguage   = "en-US,en;q=0.9"
)

// Result is one discovered candidate.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Scraper queries the HTML search endpoint.
type Scraper struct {
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

// NewScraper creates a Scraper using the given HTTP client; client must
// not be nil.
func NewScraper(client *http.Client) *Scraper {
	return &Scraper{
		client:   client,
		endpoint: DefaultEndpoint,
		logger:   slog.Default().With("component", "discovery"),
	}
}

// NewScraperWithEndpoint creates a Scraper against a custom endpoint.
func NewScraperWithEndpoint(client *http.Client, endpoint string) *Scraper {
	s := NewScraper(client)
	s.endpoint = endpoint
	return s
}

// Search returns up to maxResults candidates for query, with duplicate
// URLs suppressed. Network or parse failures end pagination silently and
// return whatever was collected.
func (s *Scraper) Search(ctx context.Context, query string, maxResults int) []Result {
	results := make([]Result, 0, maxResults)
	seen := make(map[string]struct{})

	page, err := s.fetchFirstPage(ctx, query)
	if err != nil {
		s.logger.Warn("discovery request failed", "query", query, "error", err)
		return results
	}
	nextForm := s.collect(page, seen, &results, maxResults)
	if len(results) >= maxResults || nextForm == nil {
		return results
	}

	page, err = s.fetchNextPage(ctx, nextForm)
	if err != nil {
		s.logger.Warn("discovery pagination failed", "query", query, "error", err)
		return results
	}
	s.collect(page, seen, &results, maxResults)
	return results
}

func (s *Scraper) fetchFirstPage(ctx context.Context, query string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *Scraper) fetchNextPage(ctx context.Context, form url.Values) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *Scraper) do(req *http.Request) (*html.Node, error) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("discovery endpoint returned %s", resp.Status)
	}
	return html.Parse(resp.Body)
}

// collect walks the result markup, appending new candidates until
// maxResults, and returns the hidden fields of the "Next" form when one
// exists.
func (s *Scraper) collect(root *html.Node, seen map[string]struct{}, results *[]Result, maxResults int) url.Values {
	var nextForm url.Values

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "div":
				if classContains(n, "result__body") || classContains(n, "result") {
					if r, ok := s.parseResult(n); ok {
						if _, dup := seen[r.URL]; !dup && len(*results) < maxResults {
							seen[r.URL] = struct{}{}
							*results = append(*results, r)
						}
					}
				}
			case "form":
				if nextForm == nil {
					if form, ok := parseNextForm(n); ok {
						nextForm = form
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return nextForm
}

// parseResult extracts (url, title, snippet) from one result container.
func (s *Scraper) parseResult(div *html.Node) (Result, bool) {
	var r Result

	anchor := findNode(div, func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.ToLower(n.Data) == "a" &&
			classContains(n, "result__a") && attr(n, "href") != ""
	})
	if anchor == nil {
		anchor = findNode(div, func(n *html.Node) bool {
			return n.Type == html.ElementNode && strings.ToLower(n.Data) == "a" && attr(n, "href") != ""
		})
	}
	if anchor == nil {
		return r, false
	}
	r.URL = destinationURL(attr(anchor, "href"))
	if r.URL == "" {
		return r, false
	}
	r.Title = strings.TrimSpace(textContent(anchor))

	snippetNode := findNode(div, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		name := strings.ToLower(n.Data)
		return (name == "a" || name == "div") && classContains(n, "result__snippet")
	})
	if snippetNode != nil {
		r.Snippet = strings.TrimSpace(textContent(snippetNode))
	}
	return r, true
}

// destinationURL unwraps the real target from DuckDuckGo's redirect href,
// which carries it in the uddg query parameter. Only http(s) targets are
// accepted.
func destinationURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		href = uddg
	} else if u.IsAbs() {
		href = u.String()
	} else {
		return ""
	}
	dest, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if dest.Scheme != "http" && dest.Scheme != "https" {
		return ""
	}
	return dest.String()
}

// parseNextForm returns the hidden inputs of a form whose submit button is
// labelled "Next".
func parseNextForm(form *html.Node) (url.Values, bool) {
	submit := findNode(form, func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.ToLower(n.Data) == "input" &&
			strings.EqualFold(attr(n, "type"), "submit") &&
			strings.Contains(strings.ToLower(attr(n, "value")), "next")
	})
	if submit == nil {
		return nil, false
	}
	values := url.Values{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "input" {
			if strings.EqualFold(attr(n, "type"), "hidden") {
				if name := attr(n, "name"); name != "" {
					values.Set(name, attr(n, "value"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(form)
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// classContains reports whether n's class attribute contains needle as a
// substring.
func classContains(n *html.Node, needle string) bool {
	return strings.Contains(attr(n, "class"), needle)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
