// Package store — in-memory Store implementation.
// Supports file-based snapshot persistence so data survives restarts.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// snapshot is the JSON-serializable shape written to disk.
type snapshot struct {
	Connectors map[string]*models.Connector `json:"connectors"` // key: workspace:id
	Dashboards map[string]*models.Dashboard `json:"dashboards"` // key: workspace:id
}

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu         sync.RWMutex
	connectors map[string]*models.Connector // key: workspace:id
	dashboards map[string]*models.Dashboard // key: workspace:id

	// Persistence
	snapshotPath string        // empty = no persistence
	saveMu       sync.Mutex    // guards file writes
	saveCh       chan struct{} // debounce channel
	doneCh       chan struct{} // signals background goroutines to stop
}

// NewMemoryStore creates a new in-memory store.
// If CIRCLEGOD_DATA_DIR is set, data is persisted to a JSON file in that
// directory. Otherwise defaults to ~/.circlegod/data.json.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreAt("")
}

// NewMemoryStoreAt creates an in-memory store snapshotting to dataDir.
// An empty dataDir falls back to CIRCLEGOD_DATA_DIR, then to
// ~/.circlegod.
func NewMemoryStoreAt(dataDir string) *MemoryStore {
	m := &MemoryStore{
		connectors: make(map[string]*models.Connector),
		dashboards: make(map[string]*models.Dashboard),
		saveCh:     make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}

	if dataDir == "" {
		dataDir = os.Getenv("CIRCLEGOD_DATA_DIR")
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dataDir = filepath.Join(home, ".circlegod")
		}
	}
	if dataDir != "" {
		m.snapshotPath = filepath.Join(dataDir, "data.json")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", dataDir).Msg("Cannot create data dir, persistence disabled")
			m.snapshotPath = ""
		}
	}

	if m.snapshotPath != "" {
		m.loadSnapshot()
		go m.saveLoop()
	}

	log.Info().Str("snapshot", m.snapshotPath).Msg("Memory store configured")
	return m
}

// requestSave signals the background goroutine to persist data.
// Non-blocking: coalesces multiple rapid writes into one disk flush.
func (m *MemoryStore) requestSave() {
	if m.snapshotPath == "" {
		return
	}
	select {
	case m.saveCh <- struct{}{}:
	default:
		// Already pending
	}
}

// saveLoop runs in a goroutine, debouncing save requests (max 1 write per 500ms).
func (m *MemoryStore) saveLoop() {
	for {
		select {
		case <-m.doneCh:
			return
		case <-m.saveCh:
			time.Sleep(500 * time.Millisecond) // debounce
			m.saveSnapshot()
		}
	}
}

// saveSnapshot persists all data to disk as JSON.
func (m *MemoryStore) saveSnapshot() {
	m.mu.RLock()
	snap := snapshot{
		Connectors: m.connectors,
		Dashboards: m.dashboards,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	// Write to temp file then rename for atomicity
	tmp := m.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write snapshot tmp")
		return
	}
	if err := os.Rename(tmp, m.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to rename snapshot")
		return
	}

	log.Debug().Str("path", m.snapshotPath).Msg("Snapshot saved")
}

// loadSnapshot reads data from disk on startup.
func (m *MemoryStore) loadSnapshot() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", m.snapshotPath).Msg("No snapshot file found, starting fresh")
			return
		}
		log.Warn().Err(err).Str("path", m.snapshotPath).Msg("Failed to read snapshot")
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Error().Err(err).Str("path", m.snapshotPath).Msg("Failed to parse snapshot, starting fresh")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Connectors != nil {
		m.connectors = snap.Connectors
	}
	if snap.Dashboards != nil {
		m.dashboards = snap.Dashboards
	}

	log.Info().
		Int("connectors", len(m.connectors)).
		Int("dashboards", len(m.dashboards)).
		Str("path", m.snapshotPath).
		Msg("Snapshot loaded")
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close stops the background save goroutine after a final flush.
func (m *MemoryStore) Close() error {
	if m.snapshotPath != "" {
		m.saveSnapshot()
	}
	close(m.doneCh)
	return nil
}

func key(workspace, id string) string { return workspace + ":" + id }

// ── Connectors ──────────────────────────────────────────────

func (m *MemoryStore) ListConnectors(_ context.Context, workspace string) ([]models.Connector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Connector
	for _, c := range m.connectors {
		if c.Workspace == workspace {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) GetConnector(_ context.Context, workspace, id string) (*models.Connector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.connectors[key(workspace, id)]
	if !ok {
		return nil, &ErrNotFound{Entity: "connector", Key: id}
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) CreateConnector(_ context.Context, connector *models.Connector) error {
	m.mu.Lock()
	now := time.Now().UTC()
	connector.CreatedAt = now
	connector.UpdatedAt = now
	m.connectors[key(connector.Workspace, connector.ID)] = connector
	m.mu.Unlock()

	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateConnector(_ context.Context, connector *models.Connector) error {
	m.mu.Lock()
	k := key(connector.Workspace, connector.ID)
	existing, ok := m.connectors[k]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "connector", Key: connector.ID}
	}
	connector.CreatedAt = existing.CreatedAt
	connector.UpdatedAt = time.Now().UTC()
	m.connectors[k] = connector
	m.mu.Unlock()

	m.requestSave()
	return nil
}

func (m *MemoryStore) DeleteConnector(_ context.Context, workspace, id string) error {
	m.mu.Lock()
	k := key(workspace, id)
	if _, ok := m.connectors[k]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "connector", Key: id}
	}
	delete(m.connectors, k)
	m.mu.Unlock()

	m.requestSave()
	return nil
}

// ── Dashboards ──────────────────────────────────────────────

func (m *MemoryStore) ListDashboards(_ context.Context, workspace string) ([]models.Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Dashboard
	for _, d := range m.dashboards {
		if d.Workspace == workspace {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) GetDashboard(_ context.Context, workspace, id string) (*models.Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.dashboards[key(workspace, id)]
	if !ok {
		return nil, &ErrNotFound{Entity: "dashboard", Key: id}
	}
	cp := *d
	cp.Components = append(make([]models.DashboardComponent, 0, len(d.Components)), d.Components...)
	return &cp, nil
}

func (m *MemoryStore) CreateDashboard(_ context.Context, dashboard *models.Dashboard) error {
	m.mu.Lock()
	now := time.Now().UTC()
	dashboard.CreatedAt = now
	dashboard.UpdatedAt = now
	if dashboard.Components == nil {
		dashboard.Components = []models.DashboardComponent{}
	}
	m.dashboards[key(dashboard.Workspace, dashboard.ID)] = dashboard
	m.mu.Unlock()

	m.requestSave()
	return nil
}

func (m *MemoryStore) UpdateDashboard(_ context.Context, dashboard *models.Dashboard) error {
	m.mu.Lock()
	k := key(dashboard.Workspace, dashboard.ID)
	existing, ok := m.dashboards[k]
	if !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "dashboard", Key: dashboard.ID}
	}
	dashboard.CreatedAt = existing.CreatedAt
	dashboard.UpdatedAt = time.Now().UTC()
	m.dashboards[k] = dashboard
	m.mu.Unlock()

	m.requestSave()
	return nil
}

func (m *MemoryStore) DeleteDashboard(_ context.Context, workspace, id string) error {
	m.mu.Lock()
	k := key(workspace, id)
	if _, ok := m.dashboards[k]; !ok {
		m.mu.Unlock()
		return &ErrNotFound{Entity: "dashboard", Key: id}
	}
	delete(m.dashboards, k)
	m.mu.Unlock()

	m.requestSave()
	return nil
}
