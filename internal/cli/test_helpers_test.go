package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testStore returns a migrated in-memory store.
func testStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.Open(storage.DriverCGO, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// testConfig returns defaults pointed at a temp dir, with no LLM and an
// unreachable recall port.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()
	cfg.LLM.Provider = "none"
	cfg.Recall.Port = 1
	return cfg
}

// writeTestConfig writes body as the config file and returns global flags
// pointing at it and at a fresh database path.
func writeTestConfig(t *testing.T, body string) *GlobalFlags {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return &GlobalFlags{Config: path, DBPath: filepath.Join(dir, "test.db")}
}

func seedKeys(t *testing.T, store storage.EventStore, ts time.Time, app string, keys ...string) {
	t.Helper()
	for i, k := range keys {
		ev, err := activity.NewKeystrokeEvent(ts.Add(time.Duration(i)*time.Second), k, nil,
			activity.AppContext{AppName: app, WindowTitle: app})
		require.NoError(t, err)
		require.NoError(t, store.StoreEvent(context.Background(), &ev))
	}
}

func seedSummary(t *testing.T, store storage.SummaryStore, start, end time.Time, desc string, tags ...string) *activity.Summary {
	t.Helper()
	s := &activity.Summary{StartTime: start, EndTime: end, Description: desc, Tags: tags}
	require.NoError(t, store.StoreSummary(context.Background(), s))
	return s
}
