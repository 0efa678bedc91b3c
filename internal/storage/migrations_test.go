package storage

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	for _, table := range []string{"events", "summaries", "audit_log", "schema_migrations"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	expectedIndexes := []string{
		"idx_events_ts",
		"idx_events_app",
		"idx_summaries_start",
		"idx_summaries_end",
		"idx_audit_log_action",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run())
	_, err := db.Exec(`INSERT INTO summaries (id, start_time, end_time) VALUES ('keep', 'a', 'b')`)
	require.NoError(t, err)
	require.NoError(t, runner.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	// Re-running never drops existing data.
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM summaries").Scan(&count))
	assert.Equal(t, 1, count)

	v, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var version int
	var name string
	err := db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "events_and_summaries", name)
}

func TestMigrationRunner_V002BackfillsTagsText(t *testing.T) {
	db := openTestDB(t)

	v1 := NewMigrationRunner(db)
	v1.steps = v1.steps[:1]
	require.NoError(t, v1.Run())

	_, err := db.Exec(`INSERT INTO summaries (id, start_time, end_time, tags) VALUES ('old', 'a', 'b', '["Rust","GitHub"]')`)
	require.NoError(t, err)

	require.NoError(t, NewMigrationRunner(db).Run())

	var tagsText string
	require.NoError(t, db.QueryRow("SELECT tags_text FROM summaries WHERE id = 'old'").Scan(&tagsText))
	assert.Equal(t, "rust github", tagsText)
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	// In-memory databases report "memory"; WAL only applies to files.
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_ForeignKeys(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrationRunner_EventDefaults(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	_, err := db.Exec(`INSERT INTO events (id, ts, kind) VALUES ('e1', '2026-03-02T10:00:00.000000000Z', 'keystroke')`)
	require.NoError(t, err)

	var payload, app, title string
	var url sql.NullString
	err = db.QueryRow("SELECT payload, app_name, window_title, url FROM events WHERE id = 'e1'").
		Scan(&payload, &app, &title, &url)
	require.NoError(t, err)
	assert.Equal(t, "{}", payload)
	assert.Equal(t, "unknown", app)
	assert.Equal(t, "unknown", title)
	assert.False(t, url.Valid)
}

func TestMigrationRunner_BusyTimeout(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var ms int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&ms))
	assert.Equal(t, 5000, ms)
}
