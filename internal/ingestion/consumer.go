package ingestion

import (
	"context"
	"log/slog"

	"github.com/cord19search/searchplatform/pkg/kafka"
)

// DocumentIngestTopic carries RawDocuments to be batched into segments.
const DocumentIngestTopic = "document-ingest"

// HandleDocument decodes each Kafka message as a RawDocument and adds it
// to the batcher, mirroring the reference consumer.HandleMessage shape.
func HandleDocument(batcher *Batcher) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingestion-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		doc, err := kafka.DecodeJSON[RawDocument](value)
		if err != nil {
			logger.Error("failed to decode raw document", "error", err)
			return nil
		}
		batcher.Add(doc)
		return nil
	}
}

// Reloader is satisfied by searchengine.Engine.
type Reloader interface {
	Reload() bool
}

// HandleIndexComplete calls Reload on every index.complete event,
// realizing the concrete "ingest publishes by calling reload" wiring
// spec.md's concurrency model describes.
func HandleIndexComplete(engine Reloader) kafka.MessageHandler {
	logger := slog.Default().With("component", "reload-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[IndexCompleteEvent](value)
		if err != nil {
			logger.Error("failed to decode index.complete event", "error", err)
			return nil
		}
		if !engine.Reload() {
			logger.Error("reload failed after index.complete", "segment", event.Segment)
			return nil
		}
		logger.Info("reloaded after index.complete", "segment", event.Segment, "docs", event.DocCount)
		return nil
	}
}
