// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, splits on any character outside [a-z0-9-] (so
// hyphenated words stay one token), removes stop-words, and applies Porter
// stemming.
package tokenizer

import (
	"strings"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"i": {}, "you": {}, "we": {}, "she": {}, "his": {}, "her": {},
	"them": {}, "these": {}, "those": {}, "there": {}, "then": {},
	"than": {}, "into": {}, "about": {}, "also": {}, "been": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "such": {},
	"any": {}, "all": {}, "more": {}, "most": {}, "other": {},
	"some": {}, "only": {}, "very": {}, "just": {}, "how": {},
	"why": {}, "up": {}, "out": {}, "over": {}, "under": {},
}

// Token represents a single normalised term and its offset in the token
// sequence produced from the original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into a slice of stemmed, lowercased Tokens with
// stop-words removed. Token positions are offsets into the emitted
// sequence, so positions are dense and start at zero.
func Tokenize(text string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := Stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms tokenizes text and returns just the term strings, in order.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}
