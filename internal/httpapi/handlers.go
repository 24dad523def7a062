package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"graphingest/internal/logging"
	"graphingest/internal/storage"
)

func (a *App) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	logger := logging.WithIngestion(a.logger, req.IngestionID)
	logger.Info("ingest request received", zap.Int("files", len(req.Files)))

	if err := a.orchestrator.Ingest(r.Context(), req.IngestionID, req.Files); err != nil {
		logger.Error("ingest request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, ingestionResponse{Status: "OK"})
}

func (a *App) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	getTags := true
	if v := r.URL.Query().Get("get_tags"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid get_tags", http.StatusBadRequest)
			return
		}
		getTags = parsed
	}

	getRelations := false
	if v := r.URL.Query().Get("get_relations"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid get_relations", http.StatusBadRequest)
			return
		}
		getRelations = parsed
	}

	node, err := a.storage.GetNode(id, getTags, getRelations)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, node)
}

func (a *App) handleTraversal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		http.Error(w, "missing query parameter direction", http.StatusBadRequest)
		return
	}

	var relationType *string
	if v := r.URL.Query().Get("relation_type"); v != "" {
		relationType = &v
	}

	maxDepth := 0
	if v := r.URL.Query().Get("max_depth"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid max_depth", http.StatusBadRequest)
			return
		}
		maxDepth = parsed
	}

	result := a.traversal.Walk(id, direction, relationType, maxDepth)
	writeJSON(w, result)
}

func writeStorageError(w http.ResponseWriter, err error) {
	var badRequest *storage.BadRequestError
	if errors.As(err, &badRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
