// Package cache memoizes final search results for a bounded TTL, keyed by
// (mode, limit, normalized query). The store is pluggable: an in-process
// TTL map by default, Redis when available. Concurrent identical queries
// are collapsed through singleflight.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/theoseek/theoseek/internal/searcher"
)

const keyPrefix = "search:"

// Store is the backing key-value layer for the response cache.
type Store interface {
	Get(ctx context.Context, key string) (*searcher.Result, bool)
	Set(ctx context.Context, key string, result *searcher.Result, ttl time.Duration)
	Invalidate(ctx context.Context) error
	Close() error
}

// ResponseCache fronts a Store with key building, hit/miss accounting, and
// duplicate-computation suppression.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a ResponseCache over store with the given entry TTL.
func New(store Store, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "response-cache"),
	}
}

// Get returns the cached result for (mode, query, limit) if present.
func (c *ResponseCache) Get(ctx context.Context, mode, query string, limit int) (*searcher.Result, bool) {
	key := buildKey(mode, query, limit)
	result, ok := c.store.Get(ctx, key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return result, true
}

// GetOrCompute returns the cached result or runs computeFn exactly once per
// key across concurrent callers, caching its answer.
func (c *ResponseCache) GetOrCompute(
	ctx context.Context,
	mode, query string,
	limit int,
	computeFn func() (*searcher.Result, error),
) (*searcher.Result, bool, error) {
	if result, ok := c.Get(ctx, mode, query, limit); ok {
		return result, true, nil
	}
	key := buildKey(mode, query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.store.Get(ctx, key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.store.Set(ctx, key, result, c.ttl)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*searcher.Result), false, nil
}

// Invalidate drops every cached entry.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if err := c.store.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated")
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *ResponseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes (mode, limit, normalized query) into a fixed-width key.
func buildKey(mode, query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d:%s", mode, limit, NormalizeQuery(query))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// NormalizeQuery lowercases the query and collapses whitespace so
// trivially different spellings share a cache entry.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
