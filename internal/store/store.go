// Package store persists the records the HTTP API manages: data
// connector configurations and saved dashboards. The in-memory
// implementation snapshots to a JSON file so local data survives
// restarts.
package store

import (
	"context"

	"github.com/circlegod/circlegod/pkg/models"
)

// Store is the persistence interface the handlers depend on.
type Store interface {
	ConnectorStore
	DashboardStore

	// Ping checks if the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Connector Store ─────────────────────────────────────────

// ConnectorStore persists data connector configurations.
type ConnectorStore interface {
	ListConnectors(ctx context.Context, workspace string) ([]models.Connector, error)
	GetConnector(ctx context.Context, workspace, id string) (*models.Connector, error)
	CreateConnector(ctx context.Context, connector *models.Connector) error
	UpdateConnector(ctx context.Context, connector *models.Connector) error
	DeleteConnector(ctx context.Context, workspace, id string) error
}

// ── Dashboard Store ─────────────────────────────────────────

// DashboardStore persists dashboards and their components.
type DashboardStore interface {
	ListDashboards(ctx context.Context, workspace string) ([]models.Dashboard, error)
	GetDashboard(ctx context.Context, workspace, id string) (*models.Dashboard, error)
	CreateDashboard(ctx context.Context, dashboard *models.Dashboard) error
	UpdateDashboard(ctx context.Context, dashboard *models.Dashboard) error
	DeleteDashboard(ctx context.Context, workspace, id string) error
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
