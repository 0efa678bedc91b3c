package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStep is one versioned schema change. up runs inside a transaction
// together with the schema_migrations record for it.
type schemaStep struct {
	version int
	name    string
	up      func(tx *sql.Tx) error
}

// schemaSteps must stay in ascending version order. Never edit a released
// step; add a new one.
var schemaSteps = []schemaStep{
	{version: 1, name: "events_and_summaries", up: migrateV001},
	{version: 2, name: "summary_search_text", up: migrateV002},
}

// connectionPragmas run on every open. busy_timeout lets the CLI and a
// running daemon share one database file.
var connectionPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// MigrationRunner brings a SQLite database up to the current schema.
// Applied versions are recorded in schema_migrations and existing tables
// are altered in place, never dropped.
type MigrationRunner struct {
	db    *sql.DB
	steps []schemaStep
}

// NewMigrationRunner creates a runner for all known schema steps.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, steps: schemaSteps}
}

// Run applies pending steps with a background context.
func (r *MigrationRunner) Run() error {
	return r.RunContext(context.Background())
}

// RunContext sets the connection pragmas and applies every step not yet
// recorded, in order. It is safe to call on every open.
func (r *MigrationRunner) RunContext(ctx context.Context) error {
	for _, p := range connectionPragmas {
		if _, err := r.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}
	for _, step := range r.steps {
		if applied[step.version] {
			continue
		}
		if err := r.apply(ctx, step); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", step.version, step.name, err)
		}
	}
	return nil
}

// Version returns the highest applied schema version, or 0 for a fresh
// database.
func (r *MigrationRunner) Version() (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func (r *MigrationRunner) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (r *MigrationRunner) apply(ctx context.Context, step schemaStep) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := step.up(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", step.version, step.name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
