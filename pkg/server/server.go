// Package server provides the public entry point for initializing the
// CircleGod analytics server.
//
// This package exists in pkg/ (not internal/) so embedding deployments
// can import it and compose the full server with their own middleware:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/circlegod/circlegod/internal/api"
	"github.com/circlegod/circlegod/internal/api/handlers"
	"github.com/circlegod/circlegod/internal/assistant"
	"github.com/circlegod/circlegod/internal/chart"
	"github.com/circlegod/circlegod/internal/config"
	"github.com/circlegod/circlegod/internal/conversation"
	"github.com/circlegod/circlegod/internal/dataset"
	"github.com/circlegod/circlegod/internal/intent"
	"github.com/circlegod/circlegod/internal/store"
	"github.com/circlegod/circlegod/internal/telemetry"
	"github.com/circlegod/circlegod/pkg/models"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized analytics plane.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the connector/dashboard store.
	Store store.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush
	// telemetry and stop dataset source watchers.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration and
// returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the analytics plane with an explicit
// configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	telemetryShutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore := store.NewMemoryStoreAt(cfg.DataDir)
	log.Info().Msg("✅ Connector/dashboard store initialized")

	catalog := dataset.NewCatalog()
	catalog.SeedBuiltin()

	registry := dataset.NewRegistry(dataset.NewFixtureSource())
	closers, err := bindSources(ctx, cfg.Sources, catalog, registry)
	if err != nil {
		return nil, err
	}
	log.Info().Int("datasets", catalog.Count()).Msg("✅ Dataset catalog ready")

	executor := dataset.NewExecutor(catalog, registry)

	orchestrator := conversation.NewOrchestrator(
		intent.New(),
		executor,
		chart.New(),
		newAssistant(cfg.Assistant),
		conversation.NewMemorySessionStore(),
	)
	log.Info().Msg("✅ Conversation orchestrator initialized")

	h := handlers.New(dataStore, orchestrator, executor, registry)
	router := api.NewRouter(cfg, h)

	shutdown := func(ctx context.Context) error {
		for _, closeFn := range closers {
			closeFn()
		}
		return telemetryShutdown(ctx)
	}

	return &Server{
		Handler:      router,
		Store:        dataStore,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

// bindSources registers the optional configured backends. File datasets
// are added to the catalog as they are discovered; SQLite and Postgres
// serve tables for datasets already in the catalog.
func bindSources(ctx context.Context, cfg config.SourcesConfig, catalog *dataset.Catalog, registry *dataset.Registry) ([]func(), error) {
	var closers []func()

	if cfg.FileDir != "" {
		fs, err := dataset.NewFileSource(cfg.FileDir)
		if err != nil {
			return nil, fmt.Errorf("file source: %w", err)
		}
		for _, ds := range fs.Datasets() {
			catalog.Register(ds)
			registry.Bind(ds.ID, fs)
		}
		closers = append(closers, func() { fs.Close() })
	}

	// Database sources serve tables named after the builtin datasets.
	// When both are configured Postgres takes precedence.
	if cfg.SQLitePath != "" {
		sq, err := dataset.NewSQLiteSource(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
		bindDatabase(catalog, registry, sq)
		closers = append(closers, func() { sq.Close() })
	}

	if cfg.PostgresURL != "" {
		pg, err := dataset.NewPostgresSource(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres source: %w", err)
		}
		bindDatabase(catalog, registry, pg)
		closers = append(closers, func() { pg.Close() })
	}

	return closers, nil
}

func bindDatabase(catalog *dataset.Catalog, registry *dataset.Registry, src dataset.Source) {
	for _, ds := range catalog.List() {
		if ds.Source != models.SourceMemory && ds.Source != models.SourceDatabase {
			continue
		}
		rebound := *ds
		rebound.Source = models.SourceDatabase
		catalog.Register(&rebound)
		registry.Bind(ds.ID, src)
	}
}

// newAssistant picks the answer provider. Rule-based is the default and
// needs no credentials.
func newAssistant(cfg config.AssistantConfig) assistant.Assistant {
	if cfg.Provider == "openai" {
		a, err := assistant.NewOpenAIAssistant(cfg.Endpoint, cfg.APIKey, cfg.Model)
		if err != nil {
			log.Warn().Err(err).Msg("OpenAI assistant unavailable, falling back to rules")
		} else {
			log.Info().Str("model", cfg.Model).Msg("✅ OpenAI assistant configured")
			return a
		}
	}
	log.Info().Msg("✅ Rule-based assistant configured")
	return assistant.NewRuleAssistant()
}
