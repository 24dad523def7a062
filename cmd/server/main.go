package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"graphingest/internal/config"
	"graphingest/internal/graphmodel"
	"graphingest/internal/httpapi"
	"graphingest/internal/ingest"
	"graphingest/internal/logging"
	"graphingest/internal/objectstore"
	"graphingest/internal/storage"
	"graphingest/internal/tracing"
	"graphingest/internal/traversal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancelTracing := context.WithCancel(context.Background())
	defer cancelTracing()
	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	logger.Info("starting application",
		zap.Int("parallel_files", cfg.ParallelFiles),
		zap.Int("db_parallelism", cfg.DBParallelism),
		zap.String("region", cfg.Region))

	storageSvc, err := storage.New(context.Background(), storage.Config{
		Host:        cfg.DBURL,
		DC:          cfg.DBDC,
		Parallelism: cfg.DBParallelism,
		SchemaFile:  cfg.SchemaFile,
	}, logger)
	if err != nil {
		return err
	}

	fetcher, err := objectstore.NewS3Fetcher(context.Background(), cfg.Region)
	if err != nil {
		return err
	}

	orchestrator := ingest.New(fetcher, storageSvc, cfg.ParallelFiles, logger)
	app := httpapi.NewApp(storageSvc, traversalRunner{reader: storageSvc}, orchestrator, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("bye")
	return nil
}

// traversalRunner adapts traversal.Walk (a plain function) to the
// httpapi.TraversalRunner interface.
type traversalRunner struct {
	reader traversal.Reader
}

func (t traversalRunner) Walk(id, direction string, relationType *string, maxDepth int) *graphmodel.TraversalNode {
	return traversal.Walk(t.reader, id, direction, relationType, maxDepth)
}
