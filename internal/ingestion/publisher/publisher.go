// Package publisher persists documents to PostgreSQL and publishes ingest
// events to Kafka for downstream indexing.
package publisher

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/theoseek/theoseek/internal/ingestion"
	"github.com/theoseek/theoseek/pkg/kafka"
	"github.com/theoseek/theoseek/pkg/postgres"
	"github.com/theoseek/theoseek/pkg/resilience"
)

// Publisher coordinates document persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
// The producer may be nil, in which case documents are only persisted.
func New(db *postgres.Client, producer *kafka.Producer) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest persists the document in PostgreSQL and publishes an IngestEvent
// to Kafka. Documents without an explicit ID get one derived from the
// content hash, so re-submitting identical content is idempotent.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	docID := req.ID
	if docID == "" {
		hash := sha256.Sum256([]byte(req.Body))
		docID = fmt.Sprintf("doc-%x", hash[:12])
	}
	contentType := strings.ToLower(req.ContentType)
	if contentType == "" {
		contentType = "html"
	}
	now := time.Now().UTC()

	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, url, content_type, content, status, indexed_at)
			VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				url = EXCLUDED.url,
				content_type = EXCLUDED.content_type,
				content = EXCLUDED.content,
				status = 'PENDING',
				indexed_at = EXCLUDED.indexed_at`,
			docID, req.Title, req.URL, contentType, req.Body, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	if p.producer != nil {
		event := kafka.Event{
			Key: docID,
			Value: ingestion.IngestEvent{
				DocumentID:  docID,
				Title:       req.Title,
				Body:        req.Body,
				URL:         req.URL,
				ContentType: contentType,
				IngestedAt:  now,
			},
		}
		err := resilience.Retry(ctx, "publish-ingest-event", resilience.RetryConfig{}, func() error {
			return p.producer.Publish(ctx, event)
		})
		if err != nil {
			p.logger.Error("failed to publish to kafka, document stuck in PENDING",
				"doc_id", docID,
				"error", err,
			)
		}
	}

	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     "PENDING",
	}, nil
}
