package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/circlegod/circlegod/internal/store"
	"github.com/circlegod/circlegod/pkg/models"
)

// newTestStore creates a fresh in-memory store backed by a temp dir so
// tests never write to ~/.circlegod/.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dir := t.TempDir()
	os.Setenv("CIRCLEGOD_DATA_DIR", dir)
	defer os.Unsetenv("CIRCLEGOD_DATA_DIR")
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewMemoryStoreAtOverridesEnv(t *testing.T) {
	envDir := t.TempDir()
	explicitDir := t.TempDir()
	t.Setenv("CIRCLEGOD_DATA_DIR", envDir)

	s := store.NewMemoryStoreAt(explicitDir)
	if err := s.CreateConnector(context.Background(), &models.Connector{
		ID:        "c1",
		Workspace: "default",
		Name:      "warehouse",
	}); err != nil {
		t.Fatalf("CreateConnector() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(explicitDir, "data.json")); err != nil {
		t.Errorf("snapshot missing from explicit dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(envDir, "data.json")); err == nil {
		t.Error("snapshot written to env dir despite explicit dir")
	}
}

// ─── Connector CRUD ──────────────────────────────────────────

func TestCreateAndGetConnector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conn := &models.Connector{
		ID:        "c1",
		Workspace: "default",
		Name:      "warehouse",
		Type:      models.SourceDatabase,
		Config:    map[string]any{"dsn": "postgres://localhost/analytics"},
	}
	if err := s.CreateConnector(ctx, conn); err != nil {
		t.Fatalf("CreateConnector() error = %v", err)
	}

	got, err := s.GetConnector(ctx, "default", "c1")
	if err != nil {
		t.Fatalf("GetConnector() error = %v", err)
	}
	if got.Name != "warehouse" {
		t.Errorf("GetConnector().Name = %q, want %q", got.Name, "warehouse")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on create")
	}
}

func TestGetConnector_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetConnector(context.Background(), "default", "missing")
	var notFound *store.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want *ErrNotFound", err)
	}
	if notFound.Entity != "connector" {
		t.Errorf("Entity = %q, want connector", notFound.Entity)
	}
}

func TestUpdateConnectorKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conn := &models.Connector{ID: "c1", Workspace: "default", Name: "before", Type: models.SourceFile}
	if err := s.CreateConnector(ctx, conn); err != nil {
		t.Fatalf("CreateConnector() error = %v", err)
	}
	created := conn.CreatedAt

	updated := &models.Connector{ID: "c1", Workspace: "default", Name: "after", Type: models.SourceFile}
	if err := s.UpdateConnector(ctx, updated); err != nil {
		t.Fatalf("UpdateConnector() error = %v", err)
	}

	got, _ := s.GetConnector(ctx, "default", "c1")
	if got.Name != "after" {
		t.Errorf("Name = %q, want after", got.Name)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v != %v", got.CreatedAt, created)
	}
}

func TestDeleteConnector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conn := &models.Connector{ID: "c1", Workspace: "default", Name: "n", Type: models.SourceAPI}
	if err := s.CreateConnector(ctx, conn); err != nil {
		t.Fatalf("CreateConnector() error = %v", err)
	}
	if err := s.DeleteConnector(ctx, "default", "c1"); err != nil {
		t.Fatalf("DeleteConnector() error = %v", err)
	}
	if _, err := s.GetConnector(ctx, "default", "c1"); err == nil {
		t.Error("connector should be gone after delete")
	}
	if err := s.DeleteConnector(ctx, "default", "c1"); err == nil {
		t.Error("second delete should report not found")
	}
}

func TestListConnectorsScopedToWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, ws := range []string{"acme", "acme", "other"} {
		id := ws + "-" + "c"
		_ = s.CreateConnector(ctx, &models.Connector{ID: id + ws, Workspace: ws, Name: id, Type: models.SourceFile})
	}

	list, err := s.ListConnectors(ctx, "acme")
	if err != nil {
		t.Fatalf("ListConnectors() error = %v", err)
	}
	for _, c := range list {
		if c.Workspace != "acme" {
			t.Errorf("leaked connector from workspace %q", c.Workspace)
		}
	}
}

// ─── Dashboard CRUD ──────────────────────────────────────────

func TestCreateAndGetDashboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dash := &models.Dashboard{
		ID:        "d1",
		Workspace: "default",
		Name:      "Sales Overview",
		Components: []models.DashboardComponent{
			{
				ID:   "w1",
				Name: "Monthly revenue",
				Type: models.ComponentChart,
				Config: models.ComponentConfig{
					Chart: &models.ChartConfig{Type: models.ChartLine},
				},
				Layout: models.GridLayout{X: 0, Y: 0, W: 6, H: 4},
			},
		},
	}
	if err := s.CreateDashboard(ctx, dash); err != nil {
		t.Fatalf("CreateDashboard() error = %v", err)
	}

	got, err := s.GetDashboard(ctx, "default", "d1")
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if len(got.Components) != 1 || got.Components[0].Type != models.ComponentChart {
		t.Errorf("components = %+v", got.Components)
	}
}

func TestCreateDashboardNilComponents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateDashboard(ctx, &models.Dashboard{ID: "d1", Workspace: "default", Name: "empty"}); err != nil {
		t.Fatalf("CreateDashboard() error = %v", err)
	}
	got, _ := s.GetDashboard(ctx, "default", "d1")
	if got.Components == nil {
		t.Error("components should serialize as an empty list, not null")
	}
}

func TestDashboardNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDashboard(context.Background(), "default", "missing")
	var notFound *store.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("error type = %T, want *ErrNotFound", err)
	}
	if err := s.UpdateDashboard(context.Background(), &models.Dashboard{ID: "missing", Workspace: "default"}); err == nil {
		t.Error("update of missing dashboard should fail")
	}
}
