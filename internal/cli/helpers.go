package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/query"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// Storage backends.
const (
	backendSQLite    = "sqlite"
	backendPostgrest = "postgrest"
)

// cmdEnv is the configuration and logger shared by a command invocation.
type cmdEnv struct {
	cfg     *config.Config
	cfgPath string
	log     *logrus.Logger
	closer  io.Closer
}

// loadEnv loads (or creates) the config file, applies environment and
// flag overrides, and sets up logging.
func loadEnv(g *GlobalFlags) (*cmdEnv, error) {
	path := ""
	verbose := false
	dbPath := ""
	if g != nil {
		path, verbose, dbPath = g.Config, g.Verbose, g.DBPath
	}
	if path == "" {
		var err error
		if path, err = config.ExpandPath(config.DefaultConfigPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadOrCreateAt(path)
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(cfg.Logging, dataDir, verbose)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(log)
	if dbPath != "" {
		cfg.Storage.Path = filepath.Dir(dbPath)
		cfg.Storage.SQLiteFile = filepath.Base(dbPath)
	}

	return &cmdEnv{cfg: cfg, cfgPath: path, log: log, closer: closer}, nil
}

func (r *cmdEnv) Close() {
	if r.closer != nil {
		r.closer.Close()
	}
}

// openSQLite opens the configured SQLite database with migrations applied.
func openSQLite(cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(cfg.Storage.Driver, dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// requireSQLite rejects commands that only work on the local database.
func requireSQLite(cfg *config.Config, command string) error {
	b := strings.ToLower(cfg.Storage.Backend)
	if b != "" && b != backendSQLite {
		return fmt.Errorf("%s requires the sqlite backend (configured: %s)", command, cfg.Storage.Backend)
	}
	return nil
}

// backend is the pair of stores a command reads and writes.
type backend struct {
	events    storage.EventStore
	summaries storage.SummaryStore
	close     func()
}

func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// openBackend opens the configured storage backend.
func openBackend(cfg *config.Config) (*backend, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", backendSQLite:
		store, db, err := openSQLite(cfg)
		if err != nil {
			return nil, err
		}
		return &backend{events: store, summaries: store, close: func() {
			store.Close()
			db.Close()
		}}, nil
	case backendPostgrest:
		key := os.Getenv(cfg.Storage.PostgrestKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("postgrest backend needs an API key in $%s", cfg.Storage.PostgrestKeyEnv)
		}
		store, err := storage.NewPostgrestStore(cfg.Storage.PostgrestURL, key)
		if err != nil {
			return nil, err
		}
		return &backend{events: store, summaries: store}, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// newEngine builds a query engine over b using cfg's query settings.
func newEngine(cfg *config.Config, b *backend, client llm.Client, log logrus.FieldLogger) *query.Engine {
	return query.NewEngine(query.Deps{
		Summaries: b.summaries,
		Events:    b.events,
		LLM:       client,
		Rewrite:   cfg.Query.Rewrite && client != nil,
		Apps:      cfg.Query.KnownApps,
		Logger:    log,
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w", "15m".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// parseTimeArg accepts RFC3339, a local "HH:MM" today, or a duration
// before now. An empty string means now.
func parseTimeArg(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}
	if d, err := parseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339, HH:MM, or a duration like 2h", s)
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
