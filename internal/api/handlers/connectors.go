package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/circlegod/circlegod/internal/api/middleware"
	"github.com/circlegod/circlegod/internal/store"
	"github.com/circlegod/circlegod/pkg/models"
)

// ListConnectors returns the workspace's connector configurations.
func (h *Handlers) ListConnectors(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	connectors, err := h.Store.ListConnectors(r.Context(), workspace)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if connectors == nil {
		connectors = []models.Connector{}
	}
	respondJSON(w, http.StatusOK, connectors)
}

// GetConnector returns one connector.
func (h *Handlers) GetConnector(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	id := chi.URLParam(r, "connectorID")

	connector, err := h.Store.GetConnector(r.Context(), workspace, id)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, connector)
}

// CreateConnector stores a new connector configuration.
func (h *Handlers) CreateConnector(w http.ResponseWriter, r *http.Request) {
	var connector models.Connector
	if err := json.NewDecoder(r.Body).Decode(&connector); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if connector.Name == "" {
		respondError(w, http.StatusBadRequest, "Connector name is required")
		return
	}

	connector.ID = uuid.New().String()
	connector.Workspace = middleware.GetWorkspace(r.Context())

	if err := h.Store.CreateConnector(r.Context(), &connector); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, connector)
}

// UpdateConnector replaces a connector configuration.
func (h *Handlers) UpdateConnector(w http.ResponseWriter, r *http.Request) {
	var connector models.Connector
	if err := json.NewDecoder(r.Body).Decode(&connector); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	connector.ID = chi.URLParam(r, "connectorID")
	connector.Workspace = middleware.GetWorkspace(r.Context())

	if err := h.Store.UpdateConnector(r.Context(), &connector); err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, connector)
}

// DeleteConnector removes a connector configuration.
func (h *Handlers) DeleteConnector(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	id := chi.URLParam(r, "connectorID")

	if err := h.Store.DeleteConnector(r.Context(), workspace, id); err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
