// Package handler exposes the search HTTP API: live and local search,
// streaming live search over server-sent events, index administration,
// and cache administration.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/theoseek/theoseek/internal/indexer"
	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/internal/livesearch"
	"github.com/theoseek/theoseek/internal/searcher"
	"github.com/theoseek/theoseek/internal/searcher/cache"
	"github.com/theoseek/theoseek/internal/searcher/executor"
	apperrors "github.com/theoseek/theoseek/pkg/errors"
	"github.com/theoseek/theoseek/pkg/logger"
	"github.com/theoseek/theoseek/pkg/metrics"
)

// LiveSearcher runs the live pipeline.
type LiveSearcher interface {
	Search(ctx context.Context, query string, topN int) (*searcher.Result, error)
	SearchStream(ctx context.Context, query string, topN int, emit livesearch.EmitFunc) error
}

// LocalSearcher runs queries against the local index.
type LocalSearcher interface {
	Execute(ctx context.Context, query string, limit int, opts executor.Options) (*searcher.Result, error)
}

// Handler serves the search API.
type Handler struct {
	live         LiveSearcher
	local        LocalSearcher
	engine       *indexer.Engine
	cache        *cache.ResponseCache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. cache, engine, and metrics may be nil.
func New(live LiveSearcher, local LocalSearcher, engine *indexer.Engine, respCache *cache.ResponseCache, m *metrics.Metrics, defaultLimit, maxResults int) *Handler {
	return &Handler{
		live:         live,
		local:        local,
		engine:       engine,
		cache:        respCache,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&limit=&mode=live|local.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = searcher.ModeLive
	}
	if mode != searcher.ModeLive && mode != searcher.ModeLocal {
		h.writeError(w, http.StatusBadRequest, "mode must be 'live' or 'local'")
		return
	}

	compute := func() (*searcher.Result, error) {
		if mode == searcher.ModeLocal {
			return h.local.Execute(ctx, query, limit, executor.Options{
				ContentType: index.ContentType(r.URL.Query().Get("type")),
			})
		}
		return h.live.Search(ctx, query, limit)
	}

	var result *searcher.Result
	var err error
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, mode, query, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; nothing sensible to write.
			return
		}
		log.Error("search failed", "mode", mode, "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	h.observe(mode, cacheHit, result, start)
	log.Info("search completed",
		"mode", mode,
		"query", query,
		"total_matches", result.TotalMatches,
		"returned", len(result.Items),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// SearchStream handles GET /api/v1/search/stream?q=&limit= as server-sent
// events: one "discovery" event, then one "scored" event, each flushed
// before the next is computed.
func (h *Handler) SearchStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		h.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(event searcher.StreamEvent) error {
		payload, err := json.Marshal(event.Result)
		if err != nil {
			return fmt.Errorf("encoding %s event: %w", event.Phase, err)
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Phase, payload); err != nil {
			return fmt.Errorf("writing %s event: %w", event.Phase, err)
		}
		flusher.Flush()
		return nil
	}

	if err := h.live.SearchStream(ctx, query, limit, emit); err != nil {
		// Headers already went out; the stream just ends.
		log.Error("streaming search failed", "query", query, "error", err)
	}
}

// IndexDocument handles POST /api/v1/index: direct ingestion into the
// local engine.
func (h *Handler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		h.writeError(w, http.StatusServiceUnavailable, "local indexing is disabled")
		return
	}
	var req struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Body        string `json:"body"`
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || req.Body == "" {
		h.writeError(w, http.StatusBadRequest, "id and body are required")
		return
	}
	ct := index.ContentType(req.ContentType)
	if ct == "" {
		ct = index.ContentHTML
	}
	doc := index.Document{
		ID:          req.ID,
		Title:       req.Title,
		URL:         req.URL,
		ContentType: ct,
	}
	if err := h.engine.IndexDocument(r.Context(), doc, req.Body); err != nil {
		h.logger.Error("index document failed", "doc_id", req.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "indexing failed")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"doc_id": req.ID, "status": "indexed"})
}

// RemoveDocument handles DELETE /api/v1/index/{id}.
func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		h.writeError(w, http.StatusServiceUnavailable, "local indexing is disabled")
		return
	}
	docID := r.PathValue("id")
	if docID == "" {
		h.writeError(w, http.StatusBadRequest, "document id is required")
		return
	}
	if err := h.engine.RemoveDocument(r.Context(), docID); err != nil {
		h.logger.Error("remove document failed", "doc_id", docID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "removal failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"doc_id": docID, "status": "removed"})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) observe(mode string, cacheHit bool, result *searcher.Result, start time.Time) {
	if h.metrics == nil {
		return
	}
	outcome := "results"
	if len(result.Items) == 0 {
		outcome = "zero_results"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(mode, outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(mode, cacheStatus).Observe(time.Since(start).Seconds())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
