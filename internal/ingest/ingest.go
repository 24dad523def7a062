// Package ingest orchestrates one ingestion request: fetch every
// named file with bounded concurrency, flatten each into rows, and
// persist them. Any single file's failure fails the whole request.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"graphingest/internal/flatten"
	"graphingest/internal/graphmodel"
	"graphingest/internal/logging"
	"graphingest/internal/objectstore"
	"graphingest/internal/tracing"
)

// Storage is the write-side seam the orchestrator depends on.
type Storage interface {
	SaveNodes(ctx context.Context, rows []graphmodel.Row) error
}

// Orchestrator coordinates fetch -> flatten -> save for a batch of
// files, bounding the number of files processed concurrently.
type Orchestrator struct {
	fetcher       objectstore.Fetcher
	storage       Storage
	parallelFiles int
	logger        *zap.Logger
}

func New(fetcher objectstore.Fetcher, storage Storage, parallelFiles int, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, storage: storage, parallelFiles: parallelFiles, logger: logger}
}

// Ingest processes every file in files under ingestionID. It returns
// the first per-file error encountered; that error cancels the context
// the other files' fetch and save run under, so their work stops at
// its next context check. Rows already written stay written.
func (o *Orchestrator) Ingest(ctx context.Context, ingestionID string, files []string) error {
	ctx, span := tracing.Start(ctx, "ingest.Ingest")
	defer span.End()

	logger := logging.WithIngestion(o.logger, ingestionID)
	start := time.Now()
	logger.Info("ingest: processing request", zap.Int("files", len(files)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelFiles)

	for _, file := range files {
		file := file
		g.Go(func() error {
			return o.processFile(gctx, ingestionID, file)
		})
	}

	err := g.Wait()
	logger.Info("ingest: request completed", zap.Duration("took", time.Since(start)), zap.Bool("ok", err == nil))
	return err
}

func (o *Orchestrator) processFile(ctx context.Context, ingestionID, file string) error {
	ctx, span := tracing.Start(ctx, "ingest.processFile")
	defer span.End()

	logger := logging.WithFile(logging.WithIngestion(o.logger, ingestionID), file)
	logger.Info("ingest: processing file")
	start := time.Now()

	doc, err := o.fetcher.Fetch(ctx, file)
	if err != nil {
		return fmt.Errorf("processing file %s: %w", file, err)
	}

	relations := flatten.PreprocessRelations(ingestionID, doc.Relations)
	rows := flatten.Nodes(ingestionID, doc.Nodes, relations)

	if err := o.storage.SaveNodes(ctx, rows); err != nil {
		return fmt.Errorf("saving nodes for file %s: %w", file, err)
	}

	logger.Info("ingest: file processed", zap.Duration("took", time.Since(start)), zap.Int("rows", len(rows)))
	return nil
}
