package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cord19search/searchplatform/internal/aisummary"
	"github.com/cord19search/searchplatform/internal/analytics"
	"github.com/cord19search/searchplatform/internal/ingestion"
	"github.com/cord19search/searchplatform/internal/searchengine"
	"github.com/cord19search/searchplatform/internal/searchhttp"
	"github.com/cord19search/searchplatform/pkg/config"
	"github.com/cord19search/searchplatform/pkg/grpc"
	"github.com/cord19search/searchplatform/pkg/health"
	"github.com/cord19search/searchplatform/pkg/kafka"
	"github.com/cord19search/searchplatform/pkg/logger"
	"github.com/cord19search/searchplatform/pkg/metrics"
	"github.com/cord19search/searchplatform/pkg/middleware"
	pkgredis "github.com/cord19search/searchplatform/pkg/redis"
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
	slog.Info("starting search service", "port", cfg.Server.Port, "data_dir", cfg.Indexer.DataDir)

	engine := searchengine.New(cfg.Indexer.DataDir, cfg.Indexer.EmbeddingsPath)
	if !engine.Reload() {
		slog.Error("failed to load any segments at startup", "data_dir", cfg.Indexer.DataDir)
	}
	slog.Info("engine initialized", "segments", engine.SegmentCount())

	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, fronting cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		slog.Info("redis fronting cache connected", "addr", cfg.Redis.Addr)
	}

	aiCacheCapacity := cfg.Search.AICacheCapacity
	if aiCacheCapacity <= 0 {
		aiCacheCapacity = aisummary.DefaultCapacity
	}
	aiCacheTTL := cfg.Search.AICacheTTL
	if aiCacheTTL <= 0 {
		aiCacheTTL = aisummary.DefaultTTL
	}
	summaryCache := aisummary.NewCache(aiCacheCapacity, aiCacheTTL)
	summaryService := aisummary.NewService(summaryCache, aisummary.NewExtractiveSummarizer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	aggregator := analytics.NewAggregator(nil)
	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator))
	aggregator = analytics.NewAggregator(analyticsConsumer)
	analyticsH := analytics.NewHandler(aggregator)

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started")

	reloadConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete, ingestion.HandleIndexComplete(engine))
	go func() {
		if err := reloadConsumer.Start(ctx); err != nil {
			slog.Error("index.complete consumer error", "error", err)
		}
	}()
	slog.Info("index.complete consumer started", "topic", cfg.Kafka.Topics.IndexComplete)

	rpcServer := grpc.NewServer()
	searchengine.RegisterRPC(rpcServer, engine)
	go func() {
		if err := rpcServer.Serve(fmt.Sprintf(":%d", cfg.Server.RPCPort)); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		rpcServer.Stop()
	}()
	slog.Info("internal rpc server listening", "port", cfg.Server.RPCPort)

	m := metrics.New()

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		if engine.SegmentCount() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d segments loaded", engine.SegmentCount())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "no segments loaded"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := searchhttp.New(engine, collector, m)
	summaryH := aisummary.NewHandler(summaryService, engine)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("POST /api/v1/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/summary/{cord_uid}", summaryH.Get)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
