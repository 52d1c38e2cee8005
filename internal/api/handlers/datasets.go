package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/internal/dataset"
	"github.com/circlegod/circlegod/pkg/models"
)

// ListDatasets returns the catalog of queryable datasets.
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Executor.Catalog().List())
}

// GetDataset returns one dataset's schema.
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	ds, err := h.Executor.Catalog().Get(id)
	if err != nil {
		var unknown *dataset.ErrUnknownDataset
		if errors.As(err, &unknown) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

// QueryDataset executes a structured query against one dataset.
func (h *Handlers) QueryDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	var params models.QueryParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Executor.Execute(r.Context(), id, params)
	if err != nil {
		var unknown *dataset.ErrUnknownDataset
		if errors.As(err, &unknown) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Debug().
		Str("dataset", id).
		Int("rows", len(result.Rows)).
		Msg("Dataset query served")
	respondJSON(w, http.StatusOK, result)
}

// SourcesHealth pings every bound data source.
func (h *Handlers) SourcesHealth(w http.ResponseWriter, r *http.Request) {
	results := h.Sources.HealthCheckAll(r.Context())

	status := http.StatusOK
	health := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			health[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		health[name] = "ok"
	}
	respondJSON(w, status, health)
}
