// Package httpapi exposes the service's three HTTP endpoints:
// POST /ingest, GET /node/{id}, GET /traversal/{id}.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"graphingest/internal/graphmodel"
)

// Storage is the read-side seam the node-lookup handler depends on.
type Storage interface {
	GetNode(id string, tags, relations bool) (*graphmodel.Node, error)
}

// TraversalRunner abstracts the traversal walk so httpapi can be
// tested without a live storage.Service; cmd/server wires this to
// traversal.Walk bound to the real storage.Service.
type TraversalRunner interface {
	Walk(id, direction string, relationType *string, maxDepth int) *graphmodel.TraversalNode
}

// Orchestrator is the write-side seam the ingest handler depends on.
type Orchestrator interface {
	Ingest(ctx context.Context, ingestionID string, files []string) error
}

// App wires the HTTP surface to its dependencies.
type App struct {
	storage      Storage
	traversal    TraversalRunner
	orchestrator Orchestrator
	logger       *zap.Logger
}

func NewApp(storage Storage, traversal TraversalRunner, orchestrator Orchestrator, logger *zap.Logger) *App {
	return &App{storage: storage, traversal: traversal, orchestrator: orchestrator, logger: logger}
}

// Handler builds the chi router.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Post("/ingest", a.handleIngest)
	r.Get("/node/{id}", a.handleGetNode)
	r.Get("/traversal/{id}", a.handleTraversal)

	return r
}
