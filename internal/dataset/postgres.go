package dataset

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/circlegod/circlegod/pkg/models"
)

// PostgresSource serves datasets from tables in a user-provided
// PostgreSQL database. Connection URL comes from DATASET_POSTGRES_URL.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to the database and verifies reachability.
func NewPostgresSource(ctx context.Context, connURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info().Msg("Postgres source initialized")
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Kind() models.SourceKind { return models.SourceDatabase }

func (s *PostgresSource) Query(ctx context.Context, datasetID string, params models.QueryParams) (*models.QueryResult, error) {
	table, err := tableName(datasetID)
	if err != nil {
		return nil, err
	}
	query, args, err := buildSelect(table, params, func(i int) string { return fmt.Sprintf("$%d", i) })
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	result := &models.QueryResult{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		row := models.Row{}
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func (s *PostgresSource) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}
