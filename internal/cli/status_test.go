package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_EmptyDB(t *testing.T) {
	store := testStore(t)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "0.1.0"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig(t)))
	})

	assert.Contains(t, output, "secondbrain status")
	assert.Contains(t, output, "Version:       0.1.0")
	assert.Contains(t, output, "Events:        0")
	assert.Contains(t, output, "Summaries:     0")
	assert.Contains(t, output, "Retention:     30 days")
	assert.NotContains(t, output, "Top Apps:")
	assert.Contains(t, output, "Daemon:        not running (127.0.0.1:1)")
	assert.Contains(t, output, "LLM:           none")
}

func TestStatus_WithData(t *testing.T) {
	store := testStore(t)
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	seedKeys(t, store, ts, "ghostty", "KeyA", "KeyB", "KeyC")
	seedKeys(t, store, ts.Add(time.Minute), "firefox", "KeyD")
	seedSummary(t, store, ts, ts.Add(5*time.Minute), "typing")

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig(t)))
	})

	assert.Contains(t, output, "Events:        4")
	assert.Contains(t, output, "Summaries:     1")
	assert.Contains(t, output, "Oldest:")
	assert.Contains(t, output, "Top Apps:")

	ghostty := strings.Index(output, "ghostty")
	firefox := strings.Index(output, "firefox")
	require.True(t, ghostty > 0 && firefox > 0)
	assert.Less(t, ghostty, firefox, "apps are sorted by count")
}

func TestStatus_JSONOutput(t *testing.T) {
	store := testStore(t)
	ts := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	seedKeys(t, store, ts, "ghostty", "KeyA", "KeyB")

	cfg := testConfig(t)
	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, cfg))
	})

	var out statusJSON
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &out), output)
	assert.Equal(t, "1.0.0", out.Version)
	assert.Equal(t, int64(2), out.TotalEvents)
	assert.Equal(t, "2026-03-04T10:00:00Z", out.OldestEvent)
	assert.Equal(t, "2026-03-04T10:00:01Z", out.NewestEvent)
	assert.Equal(t, 30, out.RetentionDays)
	assert.Equal(t, []appCountJSON{{App: "ghostty", Count: 2}}, out.TopApps)
	assert.Equal(t, "127.0.0.1:1", out.RecallAddr)
	assert.False(t, out.DaemonRunning)
	assert.Equal(t, "none", out.LLMProvider)
	assert.Greater(t, out.DatabaseSizeBytes, int64(0))
}

func TestStatus_LastPrune(t *testing.T) {
	store := testStore(t)
	_, err := store.PruneBefore(context.Background(), time.Now())
	require.NoError(t, err)

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, testConfig(t)))
	})
	assert.Contains(t, output, "Last prune:")
}
