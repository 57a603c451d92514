// Package livesearch runs the per-query live pipeline: discover candidate
// URLs, dedupe them, warm DNS, fetch pages with bounded parallelism, build
// a transient inverted index, score with BM25 plus title and domain
// boosts, and emit ranked, snippeted results. All retrieval state is
// created per request and discarded when the request completes.
package livesearch

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/internal/indexer/tokenizer"
	"github.com/theoseek/theoseek/internal/livesearch/discovery"
	"github.com/theoseek/theoseek/internal/livesearch/fetch"
	"github.com/theoseek/theoseek/internal/scholarly"
	"github.com/theoseek/theoseek/internal/searcher"
	"github.com/theoseek/theoseek/internal/searcher/ranker"
	"github.com/theoseek/theoseek/internal/searcher/snippet"
	"github.com/theoseek/theoseek/pkg/config"
	"github.com/theoseek/theoseek/pkg/metrics"
	"github.com/theoseek/theoseek/pkg/tracing"
)

// titleBoostWeight scales the title-match multiplier 1 + w*m/|q|.
const titleBoostWeight = 0.3

// scholarlyBiasSuffix is appended to queries that carry no scholarly
// intent of their own.
const scholarlyBiasSuffix = " scholarly theology philosophy"

var biasTokens = []string{"scholar", "academic", "journal", "paper"}

// Discoverer finds candidate (url, title, snippet) tuples for a query.
type Discoverer interface {
	Search(ctx context.Context, query string, maxResults int) []discovery.Result
}

// Fetcher retrieves one candidate page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) *fetch.Result
}

// EmitFunc receives one streaming event. The implementation must flush the
// event's bytes before returning.
type EmitFunc func(event searcher.StreamEvent) error

// Orchestrator owns the live pipeline. It is safe for concurrent use; all
// per-query state lives on the stack of Search.
type Orchestrator struct {
	discoverer Discoverer
	fetcher    Fetcher
	snippets   *snippet.Generator
	cfg        config.LiveSearchConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New wires an Orchestrator. The discoverer, fetcher, and snippet
// generator are required. Metrics may be nil.
func New(d Discoverer, f Fetcher, sn *snippet.Generator, cfg config.LiveSearchConfig, m *metrics.Metrics) (*Orchestrator, error) {
	if d == nil {
		return nil, errors.New("livesearch: discoverer is required")
	}
	if f == nil {
		return nil, errors.New("livesearch: fetcher is required")
	}
	if sn == nil {
		return nil, errors.New("livesearch: snippet generator is required")
	}
	if cfg.MaxDiscoveryResults <= 0 {
		cfg.MaxDiscoveryResults = 50
	}
	if cfg.MaxParallelFetches <= 0 {
		cfg.MaxParallelFetches = 8
	}
	if cfg.PerPageTimeout <= 0 {
		cfg.PerPageTimeout = 10 * time.Second
	}
	return &Orchestrator{
		discoverer: d,
		fetcher:    f,
		snippets:   sn,
		cfg:        cfg,
		metrics:    m,
		logger:     slog.Default().With("component", "live-search"),
	}, nil
}

// Search runs the full pipeline and returns the ranked result.
func (o *Orchestrator) Search(ctx context.Context, query string, topN int) (*searcher.Result, error) {
	return o.run(ctx, query, topN, nil)
}

// SearchStream runs the pipeline in streaming mode: a "discovery" event
// with zero-scored candidates as soon as discovery and dedupe finish, then
// a "scored" event with the final ranking.
func (o *Orchestrator) SearchStream(ctx context.Context, query string, topN int, emit EmitFunc) error {
	_, err := o.run(ctx, query, topN, emit)
	return err
}

// run is the shared pipeline. When emit is non-nil the two-phase streaming
// contract applies.
func (o *Orchestrator) run(ctx context.Context, query string, topN int, emit EmitFunc) (*searcher.Result, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	result := &searcher.Result{Query: query, Items: []searcher.ResultItem{}}

	if query == "" {
		return o.finish(result, start, emit, true)
	}

	ctx, span := tracing.StartChildSpan(ctx, "live-search")
	span.SetAttr("query", query)
	defer func() {
		span.End()
		span.Log()
	}()

	// Phase 1: discovery.
	discovered := o.discoverer.Search(ctx, o.biasQuery(query), o.cfg.MaxDiscoveryResults)
	if o.metrics != nil {
		o.metrics.DiscoveryResults.Observe(float64(len(discovered)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(discovered) == 0 {
		o.logger.Info("discovery returned nothing", "query", query)
		return o.finish(result, start, emit, true)
	}

	candidates := dedupeByCanonicalURL(discovered)
	span.SetAttr("candidates", len(candidates))

	if emit != nil {
		preview := o.discoveryResult(query, candidates, topN, start)
		if err := emit(searcher.StreamEvent{Phase: searcher.PhaseDiscovery, Result: preview}); err != nil {
			return nil, err
		}
	}

	// Phase 2: DNS warm-up, fire-and-forget.
	o.prefetchDNS(ctx, candidates)

	// Phase 3: bounded parallel fetch.
	pages, err := o.fetchAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	// Phase 4: transient index over the fetched pages.
	idx := index.New()
	now := time.Now().UTC()
	fetched := 0
	for _, c := range candidates {
		page := pages[c.URL]
		if page == nil || !page.Success || page.Text == "" {
			continue
		}
		title := page.Title
		if title == "" {
			title = c.Title
		}
		idx.AddDocument(index.Document{
			ID:            c.URL,
			Title:         title,
			URL:           c.URL,
			ContentType:   index.ContentHTML,
			LastIndexedAt: now,
		}, page.Text)
		fetched++
	}
	span.SetAttr("pages_indexed", fetched)

	if fetched == 0 {
		// Nothing usable came back; fall back to the discovery tuples.
		o.logger.Warn("no pages fetched, falling back to discovery snippets", "query", query)
		result.Items = o.fallbackItems(candidates, topN)
		result.TotalMatches = len(candidates)
		return o.finish(result, start, emit, false)
	}

	// Phase 5: score, boost, rank, snippet.
	result.Items = o.scoreAndRank(idx, candidates, query, topN)
	result.TotalMatches = idx.DocumentCount()
	return o.finish(result, start, emit, false)
}

// finish stamps timing and, in streaming mode, emits the scored event.
// When alsoDiscovery is set the discovery event has not been sent yet
// (empty pipeline shortcuts), so both events go out back to back.
func (o *Orchestrator) finish(result *searcher.Result, start time.Time, emit EmitFunc, alsoDiscovery bool) (*searcher.Result, error) {
	result.ElapsedMillis = time.Since(start).Milliseconds()
	if emit == nil {
		return result, nil
	}
	if alsoDiscovery {
		if err := emit(searcher.StreamEvent{Phase: searcher.PhaseDiscovery, Result: result}); err != nil {
			return nil, err
		}
	}
	if err := emit(searcher.StreamEvent{Phase: searcher.PhaseScored, Result: result}); err != nil {
		return nil, err
	}
	return result, nil
}

// biasQuery appends the scholarly suffix unless the query already signals
// scholarly intent or carries a site: operator.
func (o *Orchestrator) biasQuery(query string) string {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "site:") {
		return query
	}
	for _, field := range strings.Fields(lower) {
		for _, token := range biasTokens {
			if strings.Contains(field, token) {
				return query
			}
		}
	}
	return query + scholarlyBiasSuffix
}

// prefetchDNS resolves every distinct candidate host in the background.
// Lookup errors are deliberately dropped; the warm-up is best effort.
func (o *Orchestrator) prefetchDNS(ctx context.Context, candidates []discovery.Result) {
	hosts := make(map[string]struct{})
	for _, c := range candidates {
		if u, err := url.Parse(c.URL); err == nil && u.Hostname() != "" {
			hosts[u.Hostname()] = struct{}{}
		}
	}
	for host := range hosts {
		go func(h string) {
			_, _ = net.DefaultResolver.LookupHost(ctx, h)
		}(host)
	}
}

// fetchAll retrieves every candidate with at most MaxParallelFetches in
// flight. Each page gets its own deadline; only cancellation of the
// request context aborts the whole fetch phase.
func (o *Orchestrator) fetchAll(ctx context.Context, candidates []discovery.Result) (map[string]*fetch.Result, error) {
	sem := semaphore.NewWeighted(int64(o.cfg.MaxParallelFetches))
	pages := make(map[string]*fetch.Result, len(candidates))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(rawURL string) {
			defer wg.Done()
			defer sem.Release(1)

			pageCtx, cancel := context.WithTimeout(ctx, o.cfg.PerPageTimeout)
			defer cancel()

			fetchStart := time.Now()
			page := o.fetcher.Fetch(pageCtx, rawURL)
			if o.metrics != nil {
				o.metrics.PageFetchDuration.Observe(time.Since(fetchStart).Seconds())
				outcome := "ok"
				if !page.Success {
					outcome = "error"
					if pageCtx.Err() == context.DeadlineExceeded {
						outcome = "timeout"
					}
				}
				o.metrics.PagesFetchedTotal.WithLabelValues(outcome).Inc()
			}
			if !page.Success {
				o.logger.Debug("page fetch failed", "url", rawURL, "error", page.Error)
			}

			mu.Lock()
			pages[rawURL] = page
			mu.Unlock()
		}(c.URL)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

// scoreAndRank scores every indexed document, applies the title and
// scholarly-domain boosts, and assembles the top-N result items.
// Candidates are visited in discovery order, so equal scores rank
// deterministically.
func (o *Orchestrator) scoreAndRank(idx *index.InvertedIndex, candidates []discovery.Result, query string, topN int) []searcher.ResultItem {
	queryTerms := tokenizer.Terms(query)
	scorer := ranker.NewScorer(idx)

	docIDs := make([]string, 0, idx.DocumentCount())
	byURL := make(map[string]discovery.Result, len(candidates))
	for _, c := range candidates {
		byURL[c.URL] = c
		if _, ok := idx.Document(c.URL); ok {
			docIDs = append(docIDs, c.URL)
		}
	}

	scored := scorer.ScoreAll(queryTerms, docIDs)
	for i := range scored {
		scored[i].Score = o.boost(idx, queryTerms, scored[i].DocID, scored[i].Score)
	}
	// Boosting can reorder; re-sort stably so discovery order still breaks
	// ties.
	stableSortByScore(scored)

	if topN > 0 && len(scored) > topN {
		scored = scored[:topN]
	}

	items := make([]searcher.ResultItem, 0, len(scored))
	for _, s := range scored {
		doc, ok := idx.Document(s.DocID)
		if !ok {
			continue
		}
		title := doc.Title
		if title == "" {
			title = byURL[s.DocID].Title
		}
		domain := scholarly.Domain(s.DocID)
		items = append(items, searcher.ResultItem{
			Title:       title,
			URL:         s.DocID,
			Snippet:     o.snippets.Generate(idx.DocumentContent(s.DocID), queryTerms),
			Score:       s.Score,
			SourceType:  string(index.ContentHTML),
			IsScholarly: scholarly.IsScholarlyHost(domain),
			Domain:      domain,
		})
	}
	return items
}

// boost applies the title-match multiplier and the scholarly-domain
// multiplier to a base BM25 score.
func (o *Orchestrator) boost(idx *index.InvertedIndex, queryTerms []string, docID string, score float64) float64 {
	if len(queryTerms) == 0 {
		return score
	}
	doc, ok := idx.Document(docID)
	if !ok {
		return score
	}

	titleTerms := make(map[string]struct{})
	for _, t := range tokenizer.Terms(doc.Title) {
		titleTerms[t] = struct{}{}
	}
	matches := 0
	for _, qt := range queryTerms {
		if _, ok := titleTerms[qt]; ok {
			matches++
		}
	}
	if matches > 0 {
		score *= 1 + titleBoostWeight*float64(matches)/float64(len(queryTerms))
	}

	if scholarly.IsScholarlyURL(docID) {
		score *= scholarly.BoostFactor
	}
	return score
}

// discoveryResult builds the phase-one streaming payload from the deduped
// candidates: up to topN items, zero scores, discovery snippets.
func (o *Orchestrator) discoveryResult(query string, candidates []discovery.Result, topN int, start time.Time) *searcher.Result {
	return &searcher.Result{
		Query:         query,
		TotalMatches:  len(candidates),
		ElapsedMillis: time.Since(start).Milliseconds(),
		Items:         o.fallbackItems(candidates, topN),
	}
}

// fallbackItems converts discovery tuples into zero-scored result items.
func (o *Orchestrator) fallbackItems(candidates []discovery.Result, topN int) []searcher.ResultItem {
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	items := make([]searcher.ResultItem, 0, len(candidates))
	for _, c := range candidates {
		domain := scholarly.Domain(c.URL)
		items = append(items, searcher.ResultItem{
			Title:       c.Title,
			URL:         c.URL,
			Snippet:     c.Snippet,
			Score:       0,
			SourceType:  string(index.ContentHTML),
			IsScholarly: scholarly.IsScholarlyHost(domain),
			Domain:      domain,
		})
	}
	return items
}

// stableSortByScore sorts descending by score without disturbing the
// relative order of equal scores.
func stableSortByScore(scored []ranker.ScoredDoc) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}
