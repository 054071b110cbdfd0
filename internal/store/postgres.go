package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultTableName   = "tool_invocations"
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// PostgresRecorder implements Recorder with PostgreSQL
type PostgresRecorder struct {
	pool      *pgxpool.Pool
	tableName string
}

// Option configures the recorder
type Option func(*PostgresRecorder)

// WithTableName sets a custom table name
func WithTableName(name string) Option {
	return func(r *PostgresRecorder) {
		if name != "" {
			r.tableName = name
		}
	}
}

// NewPostgresRecorder wraps an existing pool
func NewPostgresRecorder(pool *pgxpool.Pool, opts ...Option) *PostgresRecorder {
	r := &PostgresRecorder{
		pool:      pool,
		tableName: defaultTableName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect opens a pool, verifies it and creates the table if needed
func Connect(ctx context.Context, databaseURL string, opts ...Option) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	r := NewPostgresRecorder(pool, opts...)
	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the invocation table and its index
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Migration(r.tableName)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, inv Invocation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tool, email_hash, success, status_code, duration_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query,
		inv.ID, inv.Tool, inv.EmailHash, inv.Success, inv.StatusCode, inv.DurationMs, inv.Error, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving invocation: %w", err)
	}
	return nil
}

// Recent returns the newest invocations first
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	limit = clampLimit(limit)
	query := fmt.Sprintf(`
		SELECT id, tool, email_hash, success, status_code, duration_ms, error, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var result []Invocation
	for rows.Next() {
		var inv Invocation
		if err := rows.Scan(
			&inv.ID,
			&inv.Tool,
			&inv.EmailHash,
			&inv.Success,
			&inv.StatusCode,
			&inv.DurationMs,
			&inv.Error,
			&inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invocations: %w", err)
	}
	return result, nil
}

func (r *PostgresRecorder) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() {
	r.pool.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// Migration returns the SQL to create the invocation table
func Migration(tableName string) string {
	if tableName == "" {
		tableName = defaultTableName
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			tool TEXT NOT NULL,
			email_hash TEXT NOT NULL DEFAULT '',
			success BOOLEAN NOT NULL,
			status_code INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC);
	`, tableName, tableName, tableName)
}
