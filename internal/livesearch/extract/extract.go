// Package extract parses an HTML document into its title, visible text,
// and outbound links in a single traversal.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Page is the distilled content of one HTML document.
type Page struct {
	Title string
	Text  string
	Links []string
}

// Elements whose subtrees carry no visible text.
var skipElements = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "svg": {}, "path": {},
	"iframe": {}, "nav": {}, "footer": {}, "header": {},
}

// Block-level elements that separate text runs.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "h1": {}, "h2": {}, "h3": {},
	"h4": {}, "h5": {}, "h6": {}, "tr": {}, "blockquote": {},
	"section": {}, "article": {},
}

// Parse reads an HTML document and returns its title, whitespace-normalised
// visible text, and absolute http(s) links. Relative hrefs are resolved
// against base; base may be nil.
func Parse(r io.Reader, base *url.URL) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	page := &Page{}
	var text strings.Builder
	var h1 string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			name := strings.ToLower(n.Data)
			if _, skip := skipElements[name]; skip {
				return
			}
			switch name {
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(nodeText(n))
				}
				return
			case "h1":
				if h1 == "" {
					h1 = strings.TrimSpace(nodeText(n))
				}
			case "a":
				if link := extractLink(n, base); link != "" {
					page.Links = append(page.Links, link)
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if _, block := blockElements[name]; block {
				text.WriteByte(' ')
			}
			return
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if page.Title == "" {
		page.Title = h1
	}
	page.Text = collapseWhitespace(text.String())
	return page, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(doc string, base *url.URL) (*Page, error) {
	return Parse(strings.NewReader(doc), base)
}

// nodeText concatenates the text nodes under n.
func nodeText(n *html.Node) string {
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

// extractLink resolves an anchor's href into an absolute http(s) URL with
// the fragment dropped, or "" when the href is unusable.
func extractLink(n *html.Node, base *url.URL) string {
	var href string
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, "href") {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// collapseWhitespace squeezes whitespace runs to single spaces and trims.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
