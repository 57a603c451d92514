// Package consumer reads document-ingest events from Kafka and indexes
// them into the local engine, completing the out-of-band ingestion path.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/theoseek/theoseek/internal/indexer"
	"github.com/theoseek/theoseek/internal/indexer/index"
	"github.com/theoseek/theoseek/internal/ingestion"
	"github.com/theoseek/theoseek/pkg/kafka"
)

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that indexes every ingest
// event into the engine. Undecodable events are logged and skipped so the
// consumer keeps draining the topic.
func HandleMessage(engine *indexer.Engine) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		doc := index.Document{
			ID:            event.DocumentID,
			Title:         event.Title,
			URL:           event.URL,
			ContentType:   index.ContentType(event.ContentType),
			LastIndexedAt: event.IngestedAt,
		}
		if doc.ContentType == "" {
			doc.ContentType = index.ContentHTML
		}
		if err := engine.IndexDocument(ctx, doc, event.Body); err != nil {
			return fmt.Errorf("indexing document %s: %w", event.DocumentID, err)
		}
		logger.Info("document indexed", "doc_id", event.DocumentID)
		return nil
	}
}
