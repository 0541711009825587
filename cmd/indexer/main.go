package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cord19search/searchplatform/internal/ingestion"
	"github.com/cord19search/searchplatform/pkg/config"
	"github.com/cord19search/searchplatform/pkg/kafka"
	"github.com/cord19search/searchplatform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service", "data_dir", cfg.Indexer.DataDir, "barrel_count", cfg.Indexer.BarrelCount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexCompleteProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer indexCompleteProducer.Close()

	batcher := ingestion.NewBatcher()
	builder := ingestion.NewBuilder(cfg.Indexer.DataDir, cfg.Indexer.BarrelCount, batcher, indexCompleteProducer)
	builder.StartFlushLoop(ctx, cfg.Indexer.FlushInterval)
	slog.Info("flush loop started", "interval", cfg.Indexer.FlushInterval)

	handler := ingestion.HandleDocument(batcher)
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, handler)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := kafkaConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("indexer service stopped")
}
