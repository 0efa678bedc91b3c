package storage

import "database/sql"

// migrateV001 creates the initial schema. Every statement uses
// IF NOT EXISTS so a partially migrated database can be re-run.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id           TEXT PRIMARY KEY,
			ts           TEXT NOT NULL,
			kind         TEXT NOT NULL,
			payload      TEXT NOT NULL DEFAULT '{}',
			app_name     TEXT NOT NULL DEFAULT 'unknown',
			window_title TEXT NOT NULL DEFAULT 'unknown',
			url          TEXT,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS summaries (
			id          TEXT PRIMARY KEY,
			start_time  TEXT NOT NULL,
			end_time    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '[]',
			events      TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			ts     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_ts          ON events(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_events_app         ON events(app_name)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_start    ON summaries(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_end      ON summaries(end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action   ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateV002 adds a lower-cased search column holding the tags joined by
// spaces, so content search is a plain LIKE over two columns.
func migrateV002(tx *sql.Tx) error {
	stmts := []string{
		`ALTER TABLE summaries ADD COLUMN tags_text TEXT NOT NULL DEFAULT ''`,
		`UPDATE summaries SET tags_text = lower(
			replace(replace(replace(replace(tags, '[', ''), ']', ''), '"', ''), ',', ' ')
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
