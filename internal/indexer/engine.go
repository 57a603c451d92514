// Package indexer hosts the local (non-live) indexing engine: an in-memory
// inverted index, optionally backed by a PostgreSQL document store so the
// index can be rebuilt on boot.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/pkg/metrics"
)

// Engine owns the local index and keeps it in sync with the document
// store when one is configured.
type Engine struct {
	idx     *index.InvertedIndex
	store   *DocumentStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an Engine. store and m may be nil.
func NewEngine(store *DocumentStore, m *metrics.Metrics) *Engine {
	return &Engine{
		idx:     index.New(),
		store:   store,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// Index returns the engine's inverted index for query execution.
func (e *Engine) Index() *index.InvertedIndex {
	return e.idx
}

// IndexDocument persists (when a store is configured) and indexes one
// document. Re-indexing an existing ID replaces it atomically.
func (e *Engine) IndexDocument(ctx context.Context, doc index.Document, content string) error {
	if doc.ID == "" {
		return fmt.Errorf("indexing document: empty id")
	}
	if doc.LastIndexedAt.IsZero() {
		doc.LastIndexedAt = time.Now().UTC()
	}
	if e.store != nil {
		if err := e.store.Save(ctx, doc, content); err != nil {
			return fmt.Errorf("persisting document %s: %w", doc.ID, err)
		}
	}
	e.idx.AddDocument(doc, content)
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.LocalIndexDocs.Set(float64(e.idx.DocumentCount()))
	}
	e.logger.Debug("document indexed",
		"doc_id", doc.ID,
		"tokens", e.idx.DocumentLength(doc.ID),
	)
	return nil
}

// RemoveDocument removes one document from the index and the store.
func (e *Engine) RemoveDocument(ctx context.Context, docID string) error {
	if e.store != nil {
		if err := e.store.Delete(ctx, docID); err != nil {
			return fmt.Errorf("deleting document %s: %w", docID, err)
		}
	}
	e.idx.RemoveDocument(docID)
	if e.metrics != nil {
		e.metrics.LocalIndexDocs.Set(float64(e.idx.DocumentCount()))
	}
	return nil
}

// Reload rebuilds the in-memory index from the document store. Without a
// store it is a no-op.
func (e *Engine) Reload(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	start := time.Now()
	e.idx.Clear()
	count := 0
	err := e.store.LoadAll(ctx, func(doc index.Document, content string) {
		e.idx.AddDocument(doc, content)
		count++
	})
	if err != nil {
		return fmt.Errorf("reloading index: %w", err)
	}
	if e.metrics != nil {
		e.metrics.LocalIndexDocs.Set(float64(e.idx.DocumentCount()))
	}
	e.logger.Info("index reloaded",
		"documents", count,
		"terms", e.idx.TermCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// DocumentCount returns the number of locally indexed documents.
func (e *Engine) DocumentCount() int {
	return e.idx.DocumentCount()
}
