package migration

import (
	"context"

	"linhypo/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the schema statements in execution order
func (r *MigrationRunner) Statements() []string {
	return append([]string{createRegressionRunsTable}, regressionRunIndexes...)
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, createRegressionRunsTable); err != nil {
		return errors.DatabaseError("failed to create regression_runs table", err)
	}

	for _, stmt := range regressionRunIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.DatabaseError("failed to create indexes", err)
		}
	}
	return nil
}

const createRegressionRunsTable = `
	CREATE TABLE IF NOT EXISTS regression_runs (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL DEFAULT '',
		observations INTEGER NOT NULL,
		predictors INTEGER NOT NULL,
		constrained BOOLEAN NOT NULL DEFAULT false,
		gamma_mode VARCHAR(16) NOT NULL DEFAULT 'log',
		result JSONB NOT NULL,
		residuals JSONB,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)
`

var regressionRunIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_regression_runs_created_at ON regression_runs(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_regression_runs_name ON regression_runs(name)",
}
