// Package db provides PostgreSQL persistence for scoring runs, their
// artifacts, and processed application assessments.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the schema when it does not exist yet. Statements are
// idempotent so it is safe to run at every startup.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scoring_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			model_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			samples INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS run_artifacts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES scoring_runs(id) ON DELETE CASCADE,
			step TEXT NOT NULL,
			category TEXT,
			content JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, step)
		)`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			application_id TEXT NOT NULL,
			borrower_id TEXT NOT NULL,
			credit_score DOUBLE PRECISION NOT NULL,
			probability DOUBLE PRECISION,
			traditional_score DOUBLE PRECISION NOT NULL,
			alternative_score DOUBLE PRECISION NOT NULL,
			decision TEXT NOT NULL,
			compliant BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_application
			ON assessments (application_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
