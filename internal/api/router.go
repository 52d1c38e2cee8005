package api

import (
	"encoding/json"
	"net/http"

	"github.com/circlegod/circlegod/internal/api/handlers"
	"github.com/circlegod/circlegod/internal/api/middleware"
	"github.com/circlegod/circlegod/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.WorkspaceExtractor)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Workspace", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Conversational analytics
		r.Route("/chat", func(r chi.Router) {
			r.Get("/", h.ChatInfo)
			r.Post("/", h.Chat)
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", h.ListSessions)
				r.Post("/", h.CreateSession)
				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", h.GetSession)
					r.Delete("/", h.DeleteSession)
				})
			})
		})

		// Dataset catalog & queries
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Route("/{datasetID}", func(r chi.Router) {
				r.Get("/", h.GetDataset)
				r.Post("/query", h.QueryDataset)
			})
		})

		// Data source health
		r.Get("/sources/health", h.SourcesHealth)

		// Connectors
		r.Route("/connectors", func(r chi.Router) {
			r.Get("/", h.ListConnectors)
			r.Post("/", h.CreateConnector)
			r.Route("/{connectorID}", func(r chi.Router) {
				r.Get("/", h.GetConnector)
				r.Put("/", h.UpdateConnector)
				r.Delete("/", h.DeleteConnector)
			})
		})

		// Dashboards
		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", h.ListDashboards)
			r.Post("/", h.CreateDashboard)
			r.Route("/{dashboardID}", func(r chi.Router) {
				r.Get("/", h.GetDashboard)
				r.Put("/", h.UpdateDashboard)
				r.Delete("/", h.DeleteDashboard)
			})
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "circlegod-analytics",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "circlegod-analytics",
		})
	}
}
