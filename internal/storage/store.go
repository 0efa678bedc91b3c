package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// tsLayout is fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

const summaryColumns = `id, start_time, end_time, description, tags, events`

// SQLiteStore implements EventStore and SummaryStore on SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertEvent      *sql.Stmt
	eventsInRange    *sql.Stmt
	upsertSummary    *sql.Stmt
	getSummary       *sql.Stmt
	summariesInRange *sql.Stmt
}

// NewSQLiteStore creates a store over an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertEvent, err = s.db.Prepare(`
		INSERT INTO events (id, ts, kind, payload, app_name, window_title, url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.eventsInRange, err = s.db.Prepare(`
		SELECT id, ts, kind, payload, app_name, window_title, url
		FROM events WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`)
	if err != nil {
		return err
	}

	s.upsertSummary, err = s.db.Prepare(`
		INSERT OR REPLACE INTO summaries (id, start_time, end_time, description, tags, events, tags_text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getSummary, err = s.db.Prepare(`SELECT ` + summaryColumns + ` FROM summaries WHERE id = ?`)
	if err != nil {
		return err
	}

	s.summariesInRange, err = s.db.Prepare(`
		SELECT ` + summaryColumns + ` FROM summaries
		WHERE (start_time BETWEEN ?1 AND ?2)
		   OR (end_time BETWEEN ?1 AND ?2)
		   OR (start_time <= ?1 AND end_time >= ?2)
		ORDER BY start_time DESC
	`)
	return err
}

// generateID creates an event ID: EVT- + 16 random hex chars.
func generateID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "EVT-" + hex.EncodeToString(b), nil
}

func newSummaryID() string {
	return uuid.NewString()
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// StoreEvent inserts event, assigning an ID if it has none.
func (s *SQLiteStore) StoreEvent(ctx context.Context, event *activity.Event) error {
	if event.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("generate ID: %w", err)
		}
		event.ID = id
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload := string(event.Payload)
	if payload == "" {
		payload = "{}"
	}
	var url sql.NullString
	if event.Context.URL != "" {
		url = sql.NullString{String: event.Context.URL, Valid: true}
	}

	_, err := s.insertEvent.ExecContext(ctx,
		event.ID, formatTS(event.Timestamp), event.Kind, payload,
		event.Context.AppName, event.Context.WindowTitle, url,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventsInTimeframe returns events with start <= ts <= end, oldest first.
func (s *SQLiteStore) EventsInTimeframe(ctx context.Context, start, end time.Time) ([]activity.Event, error) {
	rows, err := s.eventsInRange.QueryContext(ctx, formatTS(start), formatTS(end))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

// EventsBefore returns events older than t, oldest first.
func (s *SQLiteStore) EventsBefore(ctx context.Context, t time.Time) ([]activity.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, kind, payload, app_name, window_title, url
		FROM events WHERE ts < ? ORDER BY ts ASC
	`, formatTS(t))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]activity.Event, error) {
	defer rows.Close()

	var events []activity.Event
	for rows.Next() {
		var (
			e       activity.Event
			tsStr   string
			payload string
			url     sql.NullString
		)
		if err := rows.Scan(&e.ID, &tsStr, &e.Kind, &payload,
			&e.Context.AppName, &e.Context.WindowTitle, &url); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ts, err := parseTimestamp(tsStr)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", e.ID, err)
		}
		e.Timestamp = ts
		e.Payload = json.RawMessage(payload)
		e.Context.URL = url.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice rather than nil
	if events == nil {
		events = []activity.Event{}
	}
	return events, nil
}

// StoreSummary inserts or replaces summary, assigning an ID if it has none.
func (s *SQLiteStore) StoreSummary(ctx context.Context, summary *activity.Summary) error {
	if summary.ID == "" {
		summary.ID = newSummaryID()
	}
	if summary.Tags == nil {
		summary.Tags = []string{}
	}

	tags, err := json.Marshal(summary.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	events := []byte("[]")
	if len(summary.Events) > 0 {
		if events, err = json.Marshal(summary.Events); err != nil {
			return fmt.Errorf("encode events: %w", err)
		}
	}

	_, err = s.upsertSummary.ExecContext(ctx,
		summary.ID, formatTS(summary.StartTime), formatTS(summary.EndTime),
		summary.Description, string(tags), string(events),
		strings.ToLower(strings.Join(summary.Tags, " ")),
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// GetSummary retrieves a single summary by ID.
func (s *SQLiteStore) GetSummary(ctx context.Context, id string) (*activity.Summary, error) {
	sum, err := scanSummary(s.getSummary.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("summary %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return sum, nil
}

// SummariesInTimeframe returns summaries that start in, end in, or span
// [start, end], newest first.
func (s *SQLiteStore) SummariesInTimeframe(ctx context.Context, start, end time.Time) ([]activity.Summary, error) {
	rows, err := s.summariesInRange.QueryContext(ctx, formatTS(start), formatTS(end))
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	return scanSummaries(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchSummaries matches any word of term against description and tags.
// An empty term returns the ten most recent summaries.
func (s *SQLiteStore) SearchSummaries(ctx context.Context, term string) ([]activity.Summary, error) {
	words := strings.Fields(strings.ToLower(term))
	if len(words) == 0 {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+summaryColumns+` FROM summaries ORDER BY start_time DESC LIMIT 10`)
		if err != nil {
			return nil, fmt.Errorf("query summaries: %w", err)
		}
		return scanSummaries(rows)
	}

	var clauses []string
	var args []interface{}
	for _, w := range words {
		pattern := "%" + likeEscaper.Replace(w) + "%"
		clauses = append(clauses, `(lower(description) LIKE ? ESCAPE '\' OR tags_text LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE ` +
		strings.Join(clauses, " OR ") + ` ORDER BY start_time DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}
	return scanSummaries(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (*activity.Summary, error) {
	var (
		sum              activity.Summary
		startStr, endStr string
		tags, events     string
	)
	if err := row.Scan(&sum.ID, &startStr, &endStr, &sum.Description, &tags, &events); err != nil {
		return nil, err
	}
	var err error
	if sum.StartTime, err = parseTimestamp(startStr); err != nil {
		return nil, fmt.Errorf("start time of %s: %w", sum.ID, err)
	}
	if sum.EndTime, err = parseTimestamp(endStr); err != nil {
		return nil, fmt.Errorf("end time of %s: %w", sum.ID, err)
	}

	if err := json.Unmarshal([]byte(tags), &sum.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", sum.ID, err)
	}
	if sum.Tags == nil {
		sum.Tags = []string{}
	}
	if err := json.Unmarshal([]byte(events), &sum.Events); err != nil {
		return nil, fmt.Errorf("decode events of %s: %w", sum.ID, err)
	}
	if len(sum.Events) == 0 {
		sum.Events = nil
	}
	return &sum, nil
}

func scanSummaries(rows *sql.Rows) ([]activity.Summary, error) {
	defer rows.Close()

	summaries := []activity.Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, *sum)
	}
	return summaries, rows.Err()
}

// CountBefore reports what PruneBefore(t) would delete.
func (s *SQLiteStore) CountBefore(ctx context.Context, t time.Time) (PruneResult, error) {
	var res PruneResult
	cutoff := formatTS(t)
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE ts < ?", cutoff).Scan(&res.Events); err != nil {
		return res, fmt.Errorf("count events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM summaries WHERE end_time < ?", cutoff).Scan(&res.Summaries); err != nil {
		return res, fmt.Errorf("count summaries: %w", err)
	}
	return res, nil
}

// PruneBefore deletes events older than t and summaries that ended before t.
func (s *SQLiteStore) PruneBefore(ctx context.Context, t time.Time) (PruneResult, error) {
	var res PruneResult
	cutoff := formatTS(t)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	r, err := tx.ExecContext(ctx, "DELETE FROM events WHERE ts < ?", cutoff)
	if err != nil {
		return res, fmt.Errorf("prune events: %w", err)
	}
	res.Events, _ = r.RowsAffected()

	r, err = tx.ExecContext(ctx, "DELETE FROM summaries WHERE end_time < ?", cutoff)
	if err != nil {
		return res, fmt.Errorf("prune summaries: %w", err)
	}
	res.Summaries, _ = r.RowsAffected()

	detail := fmt.Sprintf("before=%s events=%d summaries=%d", cutoff, res.Events, res.Summaries)
	if _, err := tx.ExecContext(ctx, "INSERT INTO audit_log (action, detail) VALUES ('prune', ?)", detail); err != nil {
		return res, fmt.Errorf("record prune: %w", err)
	}

	return res, tx.Commit()
}

// PurgeAll deletes every event and summary in one transaction and reports
// how many of each were removed.
func (s *SQLiteStore) PurgeAll(ctx context.Context) (PruneResult, error) {
	var res PruneResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	r, err := tx.ExecContext(ctx, "DELETE FROM events")
	if err != nil {
		return res, fmt.Errorf("purge events: %w", err)
	}
	res.Events, _ = r.RowsAffected()

	r, err = tx.ExecContext(ctx, "DELETE FROM summaries")
	if err != nil {
		return res, fmt.Errorf("purge summaries: %w", err)
	}
	res.Summaries, _ = r.RowsAffected()

	detail := fmt.Sprintf("events=%d summaries=%d", res.Events, res.Summaries)
	if _, err := tx.ExecContext(ctx, "INSERT INTO audit_log (action, detail) VALUES ('purge', ?)", detail); err != nil {
		return res, fmt.Errorf("record purge: %w", err)
	}

	return res, tx.Commit()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM summaries").Scan(&stats.TotalSummaries); err != nil {
		return nil, fmt.Errorf("count summaries: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalEvents > 0 {
		var oldestStr, newestStr string
		err := s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM events").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("event time range: %w", err)
		}
		if stats.OldestEvent, err = parseTimestamp(oldestStr); err != nil {
			return nil, fmt.Errorf("oldest event: %w", err)
		}
		if stats.NewestEvent, err = parseTimestamp(newestStr); err != nil {
			return nil, fmt.Errorf("newest event: %w", err)
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	var lastPrune sql.NullString
	if err := s.db.QueryRowContext(ctx,
		"SELECT MAX(ts) FROM audit_log WHERE action = 'prune'").Scan(&lastPrune); err != nil {
		return nil, fmt.Errorf("last prune: %w", err)
	}
	if lastPrune.Valid {
		t, err := parseTimestamp(lastPrune.String)
		if err != nil {
			return nil, fmt.Errorf("last prune: %w", err)
		}
		stats.LastPrune = t
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT app_name, COUNT(*) AS cnt FROM events GROUP BY app_name ORDER BY cnt DESC, app_name LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top apps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ac AppCount
		if err := rows.Scan(&ac.AppName, &ac.Count); err != nil {
			return nil, err
		}
		stats.TopApps = append(stats.TopApps, ac)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is not
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertEvent, s.eventsInRange, s.upsertSummary,
		s.getSummary, s.summariesInRange,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
