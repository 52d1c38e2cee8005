package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// Executor validates queries against the catalog and dispatches them to
// the source bound for the dataset.
type Executor struct {
	catalog  *Catalog
	registry *Registry
}

// NewExecutor wires the catalog to the source registry.
func NewExecutor(catalog *Catalog, registry *Registry) *Executor {
	return &Executor{catalog: catalog, registry: registry}
}

// Execute runs a structured query. Unknown dataset IDs fail with
// *ErrUnknownDataset before any source is touched.
func (e *Executor) Execute(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error) {
	ds, err := e.catalog.Get(datasetID)
	if err != nil {
		return nil, err
	}

	src := e.registry.For(ds.ID)
	if src == nil {
		return nil, fmt.Errorf("no source bound for dataset %s", ds.ID)
	}

	start := time.Now()
	result, err := src.Query(ctx, ds.ID, params)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ds.ID, err)
	}

	log.Debug().
		Str("dataset", ds.ID).
		Str("source", string(src.Kind())).
		Int("rows", len(result.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Query executed")
	return result, nil
}

// Catalog exposes the dataset catalog for metadata lookups.
func (e *Executor) Catalog() *Catalog { return e.catalog }
