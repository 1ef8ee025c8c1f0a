package migration

import (
	"context"

	"gosdt/internal/errors"

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

// Run executes all database migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.DatabaseError("migration step "+step.Name+" failed", err)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps returns the schema statements in execution order
func Steps() []Step {
	return []Step{
		{
			Name: "create_sdt_blocks",
			SQL: `
		CREATE TABLE IF NOT EXISTS sdt_blocks (
			id UUID PRIMARY KEY,
			label VARCHAR(255) NOT NULL DEFAULT '',
			hits DOUBLE PRECISION NOT NULL CHECK (hits >= 0),
			misses DOUBLE PRECISION NOT NULL CHECK (misses >= 0),
			false_alarms DOUBLE PRECISION NOT NULL CHECK (false_alarms >= 0),
			correct_rejections DOUBLE PRECISION NOT NULL CHECK (correct_rejections >= 0),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`,
		},
		{
			Name: "index_sdt_blocks_created_at",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_sdt_blocks_created_at ON sdt_blocks(created_at)`,
		},
	}
}
