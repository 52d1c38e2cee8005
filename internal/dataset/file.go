package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// FileSource serves datasets from CSV and JSON files in a directory.
// The file's base name (without extension) is the dataset ID. A watcher
// reloads files edited while the server runs.
type FileSource struct {
	mu      sync.RWMutex
	dir     string
	tables  map[string]rowTable
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileSource loads every CSV/JSON file in dir and starts watching
// for changes.
func NewFileSource(dir string) (*FileSource, error) {
	f := &FileSource{
		dir:    dir,
		tables: make(map[string]rowTable),
		done:   make(chan struct{}),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("file source: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := f.loadFile(filepath.Join(dir, e.Name())); err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("File source: skipping unloadable file")
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file source: watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("file source: watch %s: %w", dir, err)
	}
	f.watcher = watcher
	go f.watch()

	log.Info().Str("dir", dir).Int("datasets", len(f.tables)).Msg("File source started")
	return f, nil
}

func (f *FileSource) watch() {
	for {
		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := f.loadFile(ev.Name); err != nil {
				log.Warn().Err(err).Str("file", ev.Name).Msg("File source: reload failed")
				continue
			}
			log.Info().Str("file", ev.Name).Msg("File source: dataset reloaded")
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("File source: watcher error")
		case <-f.done:
			return
		}
	}
}

func (f *FileSource) loadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var table rowTable
	var err error
	switch ext {
	case ".csv":
		table, err = loadCSV(path)
	case ".json":
		table, err = loadJSON(path)
	default:
		return fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.tables[id] = table
	f.mu.Unlock()
	return nil
}

func loadCSV(path string) (rowTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return rowTable{}, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return rowTable{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return rowTable{}, fmt.Errorf("empty csv")
	}

	header := records[0]
	rows := make([]models.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := models.Row{}
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			// Numbers stay numbers so aggregation works.
			if n, err := strconv.ParseFloat(rec[i], 64); err == nil {
				row[col] = n
			} else {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rowTable{columns: header, rows: rows}, nil
}

func loadJSON(path string) (rowTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rowTable{}, err
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return rowTable{}, fmt.Errorf("parse json: %w", err)
	}
	if len(raw) == 0 {
		return rowTable{}, fmt.Errorf("empty json array")
	}

	// JSON objects carry no column order, so impose one: string-valued
	// fields of the first row come first (labels), the rest follow,
	// both lexicographic.
	var strCols, numCols []string
	for k, v := range raw[0] {
		if _, ok := v.(string); ok {
			strCols = append(strCols, k)
		} else {
			numCols = append(numCols, k)
		}
	}
	sort.Strings(strCols)
	sort.Strings(numCols)
	columns := append(strCols, numCols...)

	rows := make([]models.Row, len(raw))
	for i, r := range raw {
		rows[i] = models.Row(r)
	}
	return rowTable{columns: columns, rows: rows}, nil
}

func (f *FileSource) Kind() models.SourceKind { return models.SourceFile }

// Datasets describes every loaded file as a catalog entry, with field
// types inferred from the first row.
func (f *FileSource) Datasets() []*models.Dataset {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]*models.Dataset, 0, len(f.tables))
	for id, table := range f.tables {
		fields := make([]models.Field, len(table.columns))
		for i, col := range table.columns {
			ft := models.FieldString
			if len(table.rows) > 0 {
				if _, ok := table.rows[0][col].(float64); ok {
					ft = models.FieldNumber
				}
			}
			fields[i] = models.Field{Name: col, Type: ft}
		}
		out = append(out, &models.Dataset{
			ID:       id,
			Name:     id,
			Source:   models.SourceFile,
			Fields:   fields,
			RowCount: int64(len(table.rows)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Query evaluates the full structured query in memory, including
// grouping and aggregation: file rows are raw records, not
// pre-aggregated tables.
func (f *FileSource) Query(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error) {
	f.mu.RLock()
	table, ok := f.tables[datasetID]
	f.mu.RUnlock()
	if !ok {
		return nil, &ErrUnknownDataset{ID: datasetID}
	}
	return runQuery(table.rows, table.columns, params), nil
}

func (f *FileSource) HealthCheck(ctx context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

// Close stops the file watcher.
func (f *FileSource) Close() error {
	close(f.done)
	return f.watcher.Close()
}
