// Package handlers implements the HTTP handlers for the analytics API:
// the chat pipeline, dataset metadata and queries, and connector and
// dashboard CRUD.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/circlegod/circlegod/internal/conversation"
	"github.com/circlegod/circlegod/internal/dataset"
	"github.com/circlegod/circlegod/internal/store"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Store        store.Store
	Orchestrator *conversation.Orchestrator
	Executor     *dataset.Executor
	Sources      *dataset.Registry
}

// New creates a Handlers instance with all dependencies.
func New(s store.Store, orch *conversation.Orchestrator, exec *dataset.Executor, sources *dataset.Registry) *Handlers {
	return &Handlers{
		Store:        s,
		Orchestrator: orch,
		Executor:     exec,
		Sources:      sources,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
