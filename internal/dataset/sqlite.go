package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/circlegod/circlegod/pkg/models"
)

// SQLiteSource serves datasets from tables in a SQLite database. The
// table name is the dataset ID with dashes folded to underscores.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens (or creates) the database at path.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	log.Info().Str("path", path).Msg("SQLite source initialized")
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Kind() models.SourceKind { return models.SourceDatabase }

func (s *SQLiteSource) Query(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error) {
	table, err := tableName(datasetID)
	if err != nil {
		return nil, err
	}
	query, args, err := buildSelect(table, params, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}

	result := &models.QueryResult{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		row := models.Row{}
		for i, col := range columns {
			row[col] = sqliteValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

// sqliteValue normalizes driver values into the row value types the
// rest of the pipeline expects.
func sqliteValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func (s *SQLiteSource) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
