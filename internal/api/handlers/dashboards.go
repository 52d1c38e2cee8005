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

// ListDashboards returns the workspace's dashboards.
func (h *Handlers) ListDashboards(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	dashboards, err := h.Store.ListDashboards(r.Context(), workspace)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dashboards == nil {
		dashboards = []models.Dashboard{}
	}
	respondJSON(w, http.StatusOK, dashboards)
}

// GetDashboard returns one dashboard with its components.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	id := chi.URLParam(r, "dashboardID")

	dashboard, err := h.Store.GetDashboard(r.Context(), workspace, id)
	if err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// CreateDashboard stores a new dashboard.
func (h *Handlers) CreateDashboard(w http.ResponseWriter, r *http.Request) {
	var dashboard models.Dashboard
	if err := json.NewDecoder(r.Body).Decode(&dashboard); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if dashboard.Name == "" {
		respondError(w, http.StatusBadRequest, "Dashboard name is required")
		return
	}

	dashboard.ID = uuid.New().String()
	dashboard.Workspace = middleware.GetWorkspace(r.Context())
	for i := range dashboard.Components {
		if dashboard.Components[i].ID == "" {
			dashboard.Components[i].ID = uuid.New().String()
		}
	}

	if err := h.Store.CreateDashboard(r.Context(), &dashboard); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, dashboard)
}

// UpdateDashboard replaces a dashboard's name, description and components.
func (h *Handlers) UpdateDashboard(w http.ResponseWriter, r *http.Request) {
	var dashboard models.Dashboard
	if err := json.NewDecoder(r.Body).Decode(&dashboard); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	dashboard.ID = chi.URLParam(r, "dashboardID")
	dashboard.Workspace = middleware.GetWorkspace(r.Context())
	for i := range dashboard.Components {
		if dashboard.Components[i].ID == "" {
			dashboard.Components[i].ID = uuid.New().String()
		}
	}

	if err := h.Store.UpdateDashboard(r.Context(), &dashboard); err != nil {
		var notFound *store.ErrNotFound
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// DeleteDashboard removes a dashboard.
func (h *Handlers) DeleteDashboard(w http.ResponseWriter, r *http.Request) {
	workspace := middleware.GetWorkspace(r.Context())
	id := chi.URLParam(r, "dashboardID")

	if err := h.Store.DeleteDashboard(r.Context(), workspace, id); err != nil {
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
