// Package executor runs parsed queries against the local inverted index:
// AND semantics over required terms, positional phrase matching, optional
// content-type filtering, BM25 ranking, and snippet assembly.
package executor

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/internal/searcher"
	"github.com/theoseek/theoseek/internal/searcher/parser"
	"github.com/theoseek/theoseek/internal/searcher/ranker"
	"github.com/theoseek/theoseek/internal/searcher/snippet"
	"github.com/theoseek/theoseek/internal/scholarly"
)

// Options narrows a search beyond the query text.
type Options struct {
	ContentType index.ContentType
}

// Executor answers queries from a single InvertedIndex.
type Executor struct {
	idx      *index.InvertedIndex
	scorer   *ranker.Scorer
	snippets *snippet.Generator
	logger   *slog.Logger
}

// New creates an Executor over idx.
func New(idx *index.InvertedIndex) *Executor {
	return &Executor{
		idx:      idx,
		scorer:   ranker.NewScorer(idx),
		snippets: snippet.NewGenerator(),
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Execute runs the query and returns up to limit ranked results.
func (e *Executor) Execute(ctx context.Context, query string, limit int, opts Options) (*searcher.Result, error) {
	start := time.Now()
	plan := parser.Parse(query)

	result := &searcher.Result{
		Query: query,
		Items: []searcher.ResultItem{},
	}
	if plan.IsEmpty() {
		result.ElapsedMillis = time.Since(start).Milliseconds()
		return result, nil
	}

	candidates := e.collectCandidates(plan)
	candidates = e.filterRequired(candidates, plan.RequiredTerms)
	candidates = e.filterPhrases(candidates, plan.Phrases)
	if opts.ContentType != "" {
		candidates = e.filterContentType(candidates, opts.ContentType)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := e.scorer.ScoreAll(plan.AllTerms(), candidates)
	result.TotalMatches = len(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	queryTerms := plan.AllTerms()
	for _, scored := range ranked {
		doc, ok := e.idx.Document(scored.DocID)
		if !ok {
			continue
		}
		content := e.idx.DocumentContent(scored.DocID)
		item := searcher.ResultItem{
			Title:       doc.Title,
			URL:         doc.URL,
			Snippet:     e.snippets.Generate(content, queryTerms),
			Score:       scored.Score,
			SourceType:  string(doc.ContentType),
			IsScholarly: doc.URL != "" && scholarly.IsScholarlyURL(doc.URL),
		}
		if doc.URL != "" {
			item.Domain = scholarly.Domain(doc.URL)
		}
		result.Items = append(result.Items, item)
	}

	result.ElapsedMillis = time.Since(start).Milliseconds()
	e.logger.Info("query executed",
		"query", query,
		"candidates", len(candidates),
		"matches", result.TotalMatches,
		"returned", len(result.Items),
	)
	return result, nil
}

// collectCandidates unions posting doc IDs across every query term. The
// result is sorted so downstream ordering is deterministic.
func (e *Executor) collectCandidates(plan *parser.ParsedQuery) []string {
	seen := make(map[string]struct{})
	for _, term := range plan.AllTerms() {
		for docID := range e.idx.Postings(term) {
			seen[docID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// filterRequired keeps candidates containing every required term.
func (e *Executor) filterRequired(candidates []string, required []string) []string {
	if len(required) == 0 {
		return candidates
	}
	kept := candidates[:0]
	for _, docID := range candidates {
		match := true
		for _, term := range required {
			if e.idx.Posting(term, docID) == nil {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, docID)
		}
	}
	return kept
}

// filterPhrases keeps candidates that contain every phrase as consecutive
// token positions. The first phrase term's positions anchor the scan; the
// remaining terms are checked with O(1) position lookups.
func (e *Executor) filterPhrases(candidates []string, phrases [][]string) []string {
	if len(phrases) == 0 {
		return candidates
	}
	kept := candidates[:0]
	for _, docID := range candidates {
		match := true
		for _, phrase := range phrases {
			if !e.matchesPhrase(docID, phrase) {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, docID)
		}
	}
	return kept
}

func (e *Executor) matchesPhrase(docID string, phrase []string) bool {
	if len(phrase) == 0 {
		return true
	}
	anchor := e.idx.Posting(phrase[0], docID)
	if anchor == nil {
		return false
	}
	rest := make([]*index.Posting, len(phrase)-1)
	for i, term := range phrase[1:] {
		p := e.idx.Posting(term, docID)
		if p == nil {
			return false
		}
		rest[i] = p
	}
	for pos := range anchor.Positions {
		found := true
		for i, p := range rest {
			if !p.HasPosition(pos + i + 1) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func (e *Executor) filterContentType(candidates []string, ct index.ContentType) []string {
	kept := candidates[:0]
	for _, docID := range candidates {
		if doc, ok := e.idx.Document(docID); ok && doc.ContentType == ct {
			kept = append(kept, docID)
		}
	}
	return kept
}
