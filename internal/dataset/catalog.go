// Package dataset provides the dataset catalog, the structured query
// executor, and the pluggable sources that serve rows: canned fixture
// tables, watched CSV/JSON files, SQLite, and PostgreSQL.
package dataset

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// ErrUnknownDataset is returned when a dataset ID is not in the catalog.
type ErrUnknownDataset struct {
	ID string
}

func (e *ErrUnknownDataset) Error() string {
	return "dataset not found: " + e.ID
}

// Catalog is a thread-safe registry of dataset metadata. Datasets are
// registered at startup and read-only afterwards.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{datasets: make(map[string]*models.Dataset)}
}

// Register adds or replaces a dataset entry.
func (c *Catalog) Register(ds *models.Dataset) {
	c.mu.Lock()
	c.datasets[ds.ID] = ds
	c.mu.Unlock()
	log.Info().Str("dataset", ds.ID).Str("source", string(ds.Source)).Msg("Dataset registered")
}

// Get returns the dataset by ID, or *ErrUnknownDataset.
func (c *Catalog) Get(id string) (*models.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[id]
	if !ok {
		return nil, &ErrUnknownDataset{ID: id}
	}
	return ds, nil
}

// List returns all datasets ordered by ID.
func (c *Catalog) List() []*models.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Dataset, 0, len(c.datasets))
	for _, ds := range c.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered datasets.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

// SeedBuiltin registers the demo datasets that back the out-of-the-box
// experience: a sales ledger and a user activity log for the current
// year.
func (c *Catalog) SeedBuiltin() {
	seededAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Register(&models.Dataset{
		ID:          "sales-2025",
		Name:        "2025 Sales",
		Description: "Monthly sales ledger across products, categories and regions",
		Source:      models.SourceMemory,
		Fields: []models.Field{
			{Name: "month", Type: models.FieldDate, Description: "Calendar month"},
			{Name: "product", Type: models.FieldString, Description: "Product name"},
			{Name: "category", Type: models.FieldString, Description: "Product category"},
			{Name: "region", Type: models.FieldString, Description: "Sales region"},
			{Name: "sales", Type: models.FieldNumber, Description: "Sales amount"},
		},
		RowCount:  1250,
		CreatedAt: seededAt,
		UpdatedAt: seededAt,
	})

	c.Register(&models.Dataset{
		ID:          "users-2025",
		Name:        "2025 User Activity",
		Description: "Monthly registered and active user counts by device and user type",
		Source:      models.SourceMemory,
		Fields: []models.Field{
			{Name: "month", Type: models.FieldDate, Description: "Calendar month"},
			{Name: "device", Type: models.FieldString, Description: "Access device"},
			{Name: "userType", Type: models.FieldString, Description: "New or returning"},
			{Name: "users", Type: models.FieldNumber, Description: "Registered users"},
			{Name: "activeUsers", Type: models.FieldNumber, Description: "Monthly active users"},
			{Name: "retention", Type: models.FieldNumber, Description: "30-day retention percent"},
		},
		RowCount:  9000,
		CreatedAt: seededAt,
		UpdatedAt: seededAt,
	})
}
