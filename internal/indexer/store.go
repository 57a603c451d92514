package indexer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/pkg/postgres"
)

// DocumentStore persists documents and their content in PostgreSQL so the
// local index survives restarts.
type DocumentStore struct {
	db *postgres.Client
}

// NewDocumentStore wraps an established postgres client.
func NewDocumentStore(db *postgres.Client) *DocumentStore {
	return &DocumentStore{db: db}
}

// EnsureSchema creates the documents table when it does not exist.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL DEFAULT '',
			source_path  TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT 'html',
			content      TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'PENDING',
			indexed_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Save upserts a document row.
func (s *DocumentStore) Save(ctx context.Context, doc index.Document, content string) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, url, source_path, content_type, content, status, indexed_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'INDEXED', $7)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				url = EXCLUDED.url,
				source_path = EXCLUDED.source_path,
				content_type = EXCLUDED.content_type,
				content = EXCLUDED.content,
				status = 'INDEXED',
				indexed_at = EXCLUDED.indexed_at`,
			doc.ID, doc.Title, doc.URL, doc.SourcePath, string(doc.ContentType), content, doc.LastIndexedAt)
		return err
	})
}

// Delete removes a document row.
func (s *DocumentStore) Delete(ctx context.Context, docID string) error {
	_, err := s.db.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, docID)
	return err
}

// LoadAll streams every stored document through fn.
func (s *DocumentStore) LoadAll(ctx context.Context, fn func(doc index.Document, content string)) error {
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT id, title, url, source_path, content_type, content, indexed_at
		FROM documents ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc index.Document
		var contentType string
		var content string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.URL, &doc.SourcePath, &contentType, &content, &doc.LastIndexedAt); err != nil {
			return fmt.Errorf("scanning document row: %w", err)
		}
		doc.ContentType = index.ContentType(contentType)
		fn(doc, content)
	}
	return rows.Err()
}

// UpdateStatus marks a document's indexing status.
func (s *DocumentStore) UpdateStatus(ctx context.Context, docID, status string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE documents SET status = $1, indexed_at = NOW() WHERE id = $2`, status, docID)
	return err
}
