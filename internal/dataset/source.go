package dataset

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// Source serves structured queries for datasets. Implementations:
// fixture (canned tables), file (watched CSV/JSON), sqlite, postgres.
type Source interface {
	// Kind identifies the source implementation.
	Kind() models.SourceKind

	// Query runs the structured query against the named dataset.
	Query(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error)

	// HealthCheck reports whether the backing store is reachable.
	HealthCheck(ctx context.Context) error
}

// Registry binds dataset IDs to the Source that serves them, with a
// fallback for datasets without an explicit binding. Thread-safe.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]Source
	fallback Source
}

// NewRegistry creates a registry with the given fallback source.
func NewRegistry(fallback Source) *Registry {
	return &Registry{
		sources:  make(map[string]Source),
		fallback: fallback,
	}
}

// Bind routes a dataset to a source. Overwrites if already bound.
func (r *Registry) Bind(datasetID string, src Source) {
	r.mu.Lock()
	r.sources[datasetID] = src
	r.mu.Unlock()
	log.Info().Str("dataset", datasetID).Str("kind", string(src.Kind())).Msg("Dataset source bound")
}

// For returns the source serving a dataset. Never nil when a fallback
// was configured.
func (r *Registry) For(datasetID string) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if src, ok := r.sources[datasetID]; ok {
		return src
	}
	return r.fallback
}

// HealthCheckAll pings every distinct bound source plus the fallback,
// keyed by source kind.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	distinct := make(map[models.SourceKind]Source, len(r.sources)+1)
	for _, src := range r.sources {
		distinct[src.Kind()] = src
	}
	if r.fallback != nil {
		distinct[r.fallback.Kind()] = r.fallback
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(distinct))
	for kind, src := range distinct {
		results[string(kind)] = src.HealthCheck(ctx)
	}
	return results
}
