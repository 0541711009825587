// Package publisher persists a document's metadata row to PostgreSQL
// and publishes its RawDocument to the document-ingest Kafka topic for
// the indexer to batch into a segment. Adapted from the reference
// publisher: cord_uid replaces the content-hash idempotency key, and
// shard assignment is dropped since segments are not sharded.
package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cord19search/searchplatform/internal/ingestion"
	apperrors "github.com/cord19search/searchplatform/pkg/errors"
	"github.com/cord19search/searchplatform/pkg/kafka"
	"github.com/cord19search/searchplatform/pkg/postgres"
	"github.com/cord19search/searchplatform/pkg/resilience"
)

// publishRetryConfig governs retries of the Kafka publish that hands a
// newly-ingested document off to the indexer. The three attempts below are
// separated by backoffs of about 200ms and then 400ms (each with ±10%
// jitter), so only a broker outage shorter than roughly 0.6s is absorbed.
var publishRetryConfig = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
}

// Publisher coordinates document persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer *kafka.Producer) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		logger:   slog.Default().With("component", "ingestion-publisher"),
	}
}

// Ingest persists the document's metadata row keyed by cord_uid and
// publishes a RawDocument for the indexer to consume. A cord_uid already
// on file is treated as a duplicate submission and returned as-is
// without re-publishing.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	existing, err := p.findByCordUID(ctx, req.CordUID)
	if err != nil {
		return nil, fmt.Errorf("checking existing cord_uid: %w", err)
	}
	if existing != nil {
		p.logger.Info("duplicate document submission", "cord_uid", req.CordUID)
		return existing, nil
	}

	err = p.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (cord_uid, title, json_relpath, status)
			 VALUES ($1, $2, $3, 'PENDING')
			 ON CONFLICT (cord_uid) DO NOTHING`,
			req.CordUID, req.Title, req.JSONRelPath)
		if err != nil {
			return apperrors.New(apperrors.ErrInternal, 500, "inserting document row")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	event := kafka.Event{
		Key: req.CordUID,
		Value: ingestion.RawDocument{
			CordUID:     req.CordUID,
			Title:       req.Title,
			Abstract:    req.Abstract,
			JSONRelPath: req.JSONRelPath,
		},
	}
	publishErr := resilience.Retry(ctx, "publisher.kafka-publish", publishRetryConfig, func() error {
		return p.producer.Publish(ctx, event)
	})
	if publishErr != nil {
		p.logger.Error("failed to publish to kafka, document stuck in PENDING",
			"cord_uid", req.CordUID,
			"error", publishErr,
		)
	}
	return &ingestion.IngestResponse{CordUID: req.CordUID, Status: "PENDING"}, nil
}

func (p *Publisher) findByCordUID(ctx context.Context, cordUID string) (*ingestion.IngestResponse, error) {
	var resp ingestion.IngestResponse
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT cord_uid, status FROM documents WHERE cord_uid=$1`, cordUID).Scan(&resp.CordUID, &resp.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by cord_uid: %w", err)
	}
	return &resp, nil
}
