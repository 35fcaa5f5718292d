package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/binance-data/internal/api"
	"github.com/rickgao/binance-data/internal/config"
	"github.com/rickgao/binance-data/internal/control"
	"github.com/rickgao/binance-data/internal/database"
	"github.com/rickgao/binance-data/internal/keyreader"
	"github.com/rickgao/binance-data/internal/model"
	"github.com/rickgao/binance-data/internal/queue"
	"github.com/rickgao/binance-data/internal/resolver"
	"github.com/rickgao/binance-data/internal/stats"
	"github.com/rickgao/binance-data/internal/stream"
	"github.com/rickgao/binance-data/internal/version"
	"github.com/rickgao/binance-data/internal/writer"
)

// shutdownGrace bounds how long the writer may spend draining buffered
// trades after the stream stops.
const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/gatherer.json", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	logger.Info("starting gatherer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"symbols", cfg.Gatherer.Symbols,
		"batch_size", cfg.Gatherer.BatchSize,
		"queue_size", cfg.Gatherer.QueueSize,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database")
	pool, err := database.Connect(ctx, cfg.Gatherer.Postgres, database.PoolConfig{
		MinConns: cfg.Gatherer.MinConns,
		MaxConns: cfg.Gatherer.MaxConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Create API client for reference data
	apiClient := api.NewClient(
		cfg.Gatherer.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(30*time.Second),
		api.WithRetries(3, time.Second),
	)
	symbolResolver := resolver.New(*configPath, apiClient, logger)

	// Trade pipeline: stream client -> bounded queue -> writer -> store.
	tradeQueue := queue.New[model.Trade](cfg.Gatherer.QueueSize)
	store := writer.NewStore(pool, logger)
	counter := &stats.Counter{}

	writerCfg := writer.DefaultWriterConfig()
	writerCfg.BatchSize = cfg.Gatherer.BatchSize

	var tradeWriter writer.Writer
	if writerCfg.BatchSize <= 1 {
		tradeWriter = writer.NewDirectWriter(writerCfg, tradeQueue, store, counter, logger)
	} else {
		tradeWriter = writer.NewBatchWriter(writerCfg, tradeQueue, store, counter, logger)
	}

	streamCfg := stream.DefaultConfig()
	streamCfg.BaseURL = cfg.Gatherer.StreamURL
	client := stream.NewClient(streamCfg, symbolResolver, tradeQueue, logger)

	// Hot reload: watcher notices config edits, controller resubscribes.
	watcher, err := config.NewWatcher(*configPath, logger)
	if err != nil {
		logger.Error("failed to create config watcher", "error", err)
		os.Exit(1)
	}
	controller := control.New(watcher.Events(), symbolResolver, client, logger)

	// Operator statistics on space keypress.
	keys := keyreader.New(os.Stdin, counter, client, logger)

	if err := tradeWriter.Start(ctx); err != nil {
		logger.Error("failed to start writer", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return keys.Run(gctx) })

	logger.Info("gatherer running")

	if err := g.Wait(); err != nil {
		logger.Error("component failed", "error", err)
	}

	// Shutdown: the stream has stopped producing; close the queue so the
	// writer drains what is buffered, then give it the grace window to
	// commit the final batch.
	logger.Info("shutting down...", "queued", tradeQueue.Len())
	tradeQueue.Close()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer stopCancel()
	if err := tradeWriter.Stop(stopCtx); err != nil {
		logger.Warn("writer did not drain cleanly", "error", err)
	}

	metrics := tradeWriter.Stats()
	logger.Info("gatherer stopped",
		"trades_persisted", counter.Load(),
		"flushes", metrics.Flushes,
		"conflicts", metrics.Conflicts,
		"dropped", metrics.Dropped,
	)
}
