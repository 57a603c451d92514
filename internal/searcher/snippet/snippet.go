// Package snippet builds highlighted result excerpts. It picks the window
// of text that covers the most distinct query terms and the most total
// occurrences, snaps it to word boundaries, and wraps matches in
// <mark> tags.
package snippet

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/theoseek/theoseek/pkg/resilience"
)

const (
	// WindowSize is the snippet width in characters.
	WindowSize = 280
	// StepSize is the window slide increment.
	StepSize = 40
	// boundarySlack is how far the window edges may move to land on a space.
	boundarySlack = 30
	// HighlightTimeout bounds the highlight regex pass.
	HighlightTimeout = 100 * time.Millisecond
)

// Generator produces snippets from document text and query terms.
type Generator struct {
	timeout time.Duration
}

// NewGenerator creates a Generator with the default highlight deadline.
func NewGenerator() *Generator {
	return &Generator{timeout: HighlightTimeout}
}

type hit struct {
	pos  int
	term int
}

// Generate returns a highlighted snippet of text for the given query terms.
// Terms are matched case-insensitively. When no term occurs in the text the
// head of the document is returned unhighlighted.
func (g *Generator) Generate(text string, queryTerms []string) string {
	if text == "" {
		return ""
	}

	terms := distinctLower(queryTerms)
	lower := strings.ToLower(text)

	hits := collectHits(lower, terms)
	if len(hits) == 0 {
		if len(text) <= WindowSize {
			return text
		}
		return text[:WindowSize] + "..."
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	start, end := bestWindow(hits, len(terms), len(text))
	start, end = snapToWords(text, start, end)

	excerpt := text[start:end]
	excerpt = g.highlight(excerpt, terms)

	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(text) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

// distinctLower lowercases terms and drops duplicates and empties,
// preserving order.
func distinctLower(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// collectHits records every occurrence position of every term in the
// lowercased text.
func collectHits(lower string, terms []string) []hit {
	var hits []hit
	for ti, term := range terms {
		from := 0
		for {
			i := strings.Index(lower[from:], term)
			if i < 0 {
				break
			}
			hits = append(hits, hit{pos: from + i, term: ti})
			from += i + 1
		}
	}
	return hits
}

// bestWindow slides a WindowSize window over the text in StepSize
// increments and returns the window whose coverage score
// 1000*distinctTerms + totalHits is highest. Ties go to the earlier
// window.
func bestWindow(hits []hit, termCount, textLen int) (int, int) {
	bestStart, bestScore := 0, -1
	termsInWindow := make([]int, termCount)

	for start := 0; start < textLen; start += StepSize {
		end := start + WindowSize
		for i := range termsInWindow {
			termsInWindow[i] = 0
		}
		// First hit at or past the window start.
		first := sort.Search(len(hits), func(i int) bool { return hits[i].pos >= start })
		distinct, total := 0, 0
		for i := first; i < len(hits) && hits[i].pos < end; i++ {
			total++
			if termsInWindow[hits[i].term] == 0 {
				distinct++
			}
			termsInWindow[hits[i].term]++
		}
		score := 1000*distinct + total
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
		if end >= textLen {
			break
		}
	}

	end := bestStart + WindowSize
	if end > textLen {
		end = textLen
	}
	return bestStart, end
}

// snapToWords nudges the window edges onto space boundaries: the start
// advances past the next space within boundarySlack characters, the end
// retreats to the last space within the trailing boundarySlack characters.
func snapToWords(text string, start, end int) (int, int) {
	if start > 0 {
		limit := start + boundarySlack
		if limit > end {
			limit = end
		}
		if i := strings.IndexByte(text[start:limit], ' '); i >= 0 {
			start = start + i + 1
		}
	}
	if end < len(text) {
		from := end - boundarySlack
		if from < start {
			from = start
		}
		if i := strings.LastIndexByte(text[from:end], ' '); i >= 0 && from+i > start {
			end = from + i
		}
	}
	return start, end
}

// highlight wraps every occurrence of any query term (plus trailing word
// characters, so stems match their inflections) in <mark> tags. The pass
// is bounded by the generator's deadline; on timeout the plain excerpt is
// returned.
func (g *Generator) highlight(excerpt string, terms []string) string {
	if len(terms) == 0 {
		return excerpt
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	pattern := `(?i)(` + strings.Join(quoted, "|") + `)\w*`

	highlighted := excerpt
	err := resilience.WithTimeout(context.Background(), g.timeout, "snippet-highlight", func(ctx context.Context) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return err
		}
		highlighted = re.ReplaceAllString(excerpt, "<mark>$0</mark>")
		return nil
	})
	if err != nil {
		return excerpt
	}
	return highlighted
}
