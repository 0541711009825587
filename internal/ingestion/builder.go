package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cord19search/searchplatform/internal/segment"
	"github.com/cord19search/searchplatform/pkg/kafka"
)

// IndexCompleteTopic is the Kafka topic the searcher's reload consumer
// subscribes to.
const IndexCompleteTopic = "index.complete"

// Builder periodically flushes a Batcher into a new segment directory
// under indexDir/segments, appends the segment name to manifest.bin, and
// publishes an IndexCompleteEvent so the searcher reloads. It mirrors
// the reference indexer.Engine's ticker-driven flush loop, adapted to
// emit the C1 on-disk format instead of a .spdx file.
type Builder struct {
	indexDir    string
	barrelCount int
	batcher     *Batcher
	producer    *kafka.Producer
	logger      *slog.Logger
}

// NewBuilder wires a Batcher to a directory and a Kafka producer used to
// announce index.complete events.
func NewBuilder(indexDir string, barrelCount int, batcher *Batcher, producer *kafka.Producer) *Builder {
	return &Builder{
		indexDir:    indexDir,
		barrelCount: barrelCount,
		batcher:     batcher,
		producer:    producer,
		logger:      slog.Default().With("component", "ingestion-builder"),
	}
}

// Flush drains the batcher and, if it held any documents, writes a new
// segment, appends it to the manifest, and publishes index.complete.
// A drained batch with zero documents is a no-op, not an error.
func (bd *Builder) Flush(ctx context.Context) error {
	docs, postings := bd.batcher.Drain()
	if len(docs) == 0 {
		return nil
	}
	name := fmt.Sprintf("seg_%d", time.Now().UnixNano())
	dir := filepath.Join(bd.indexDir, "segments", name)

	b := &segment.Builder{BarrelCount: bd.barrelCount}
	if err := b.Build(dir, docs, postings); err != nil {
		return fmt.Errorf("building segment %s: %w", name, err)
	}
	if err := segment.AppendManifest(filepath.Join(bd.indexDir, "manifest.bin"), name); err != nil {
		return fmt.Errorf("appending manifest for %s: %w", name, err)
	}

	if bd.producer != nil {
		event := IndexCompleteEvent{Segment: name, DocCount: len(docs)}
		if err := bd.producer.Publish(ctx, kafka.Event{Key: name, Value: event}); err != nil {
			bd.logger.Error("publishing index.complete failed", "segment", name, "error", err)
		}
	}
	bd.logger.Info("segment built", "segment", name, "docs", len(docs))
	return nil
}

// StartFlushLoop flushes on a fixed interval and once more on shutdown,
// matching the reference implementation's flush-loop shape.
func (bd *Builder) StartFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if err := bd.Flush(context.Background()); err != nil {
					bd.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if bd.batcher.Len() > 0 {
					if err := bd.Flush(ctx); err != nil {
						bd.logger.Error("periodic flush failed", "error", err)
					}
				}
			}
		}
	}()
}
