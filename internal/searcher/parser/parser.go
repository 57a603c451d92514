// Package parser turns free-text queries into required terms, optional
// terms, and quoted phrases. AND is the implicit operator; OR routes the
// following token into the optional set.
package parser

import (
	"regexp"
	"strings"

	"github.com/theoseek/theoseek/internal/indexer/tokenizer"
)

var phrasePattern = regexp.MustCompile(`"([^"]*)"`)

// ParsedQuery is the structured form of a user query. Term slices hold
// stemmed tokens in the order they appeared.
type ParsedQuery struct {
	RequiredTerms []string
	OptionalTerms []string
	Phrases       [][]string
	RawQuery      string
}

// IsEmpty reports whether the query contains no terms or phrases at all.
func (q *ParsedQuery) IsEmpty() bool {
	return len(q.RequiredTerms) == 0 && len(q.OptionalTerms) == 0 && len(q.Phrases) == 0
}

// AllTerms returns required, optional, and phrase terms flattened into one
// slice, duplicates retained.
func (q *ParsedQuery) AllTerms() []string {
	terms := make([]string, 0, len(q.RequiredTerms)+len(q.OptionalTerms))
	terms = append(terms, q.RequiredTerms...)
	terms = append(terms, q.OptionalTerms...)
	for _, phrase := range q.Phrases {
		terms = append(terms, phrase...)
	}
	return terms
}

// Parse extracts quoted phrases first, then splits the remainder on
// whitespace. AND tokens are skipped; an OR token routes the next token
// into the optional set.
func Parse(query string) *ParsedQuery {
	plan := &ParsedQuery{
		RequiredTerms: make([]string, 0),
		OptionalTerms: make([]string, 0),
		Phrases:       make([][]string, 0),
		RawQuery:      query,
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}

	rest := phrasePattern.ReplaceAllStringFunc(query, func(match string) string {
		interior := match[1 : len(match)-1]
		terms := tokenizer.Terms(interior)
		if len(terms) > 0 {
			plan.Phrases = append(plan.Phrases, terms)
		}
		return " "
	})

	optionalNext := false
	for _, word := range strings.Fields(rest) {
		switch strings.ToUpper(word) {
		case "AND":
			continue
		case "OR":
			optionalNext = true
			continue
		}
		terms := tokenizer.Terms(word)
		if len(terms) == 0 {
			optionalNext = false
			continue
		}
		if optionalNext {
			plan.OptionalTerms = append(plan.OptionalTerms, terms...)
			optionalNext = false
		} else {
			plan.RequiredTerms = append(plan.RequiredTerms, terms...)
		}
	}
	return plan
}
