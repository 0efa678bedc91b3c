package cli

import (
	"strings"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Equal(t, "secondbrain 0.1.0-test", strings.TrimSpace(output))
}

func TestVersionFlagAfterSubcommand(t *testing.T) {
	output := captureOutput(t, func() {
		require.NoError(t, RunWithArgs("1.2.3", []string{"status", "--version"}))
	})
	assert.Equal(t, "secondbrain 1.2.3", strings.TrimSpace(output))
}

func TestSubcommandsRecognized(t *testing.T) {
	cases := map[string][]string{
		"start":     {"start", "--demo", "--port", "9090"},
		"ask":       {"ask", "--format", "json", "what", "did", "I", "do", "today"},
		"search":    {"search", "--limit", "3", "golang"},
		"open":      {"open", "--id", "abc"},
		"add":       {"add", "--description", "reading", "--tag", "a", "--tag", "b"},
		"summarize": {"summarize", "--since", "1h"},
		"status":    {"status"},
		"prune":     {"prune", "--older-than", "7d", "--dry-run", "--archive"},
		"purge":     {"purge", "--all", "--force"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			parser, _, _ := buildParser("test")
			parser.CommandHandler = func(goflags.Commander, []string) error { return nil }

			_, err := parser.ParseArgs(args)
			require.NoError(t, err)
			require.NotNil(t, parser.Active)
			assert.Equal(t, name, parser.Active.Name)
		})
	}
}

func TestParserPopulatesFlags(t *testing.T) {
	parser, globals, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := parser.ParseArgs([]string{"--json", "--db-path", "/tmp/x.db", "add",
		"--description", "reading", "--tag", "a", "--tag", "b", "--start", "09:00"})
	require.NoError(t, err)

	assert.True(t, globals.JSON)
	assert.Equal(t, "/tmp/x.db", globals.DBPath)
	assert.Equal(t, "reading", cmds.Add.Description)
	assert.Equal(t, []string{"a", "b"}, cmds.Add.Tags)
	assert.Equal(t, "09:00", cmds.Add.Start)
}

func TestParserDefaults(t *testing.T) {
	parser, _, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := parser.ParseArgs([]string{"search", "x"})
	require.NoError(t, err)

	assert.Equal(t, "auto", cmds.Search.Format)
	assert.Equal(t, 10, cmds.Search.Limit)
}

func TestAskFormatDefault(t *testing.T) {
	parser, _, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }

	_, err := parser.ParseArgs([]string{"ask", "what", "now"})
	require.NoError(t, err)
	assert.Equal(t, "text", cmds.Ask.Format)
	assert.False(t, cmds.Ask.Remote)
}

func TestUnknownSubcommand(t *testing.T) {
	captureOutput(t, func() {
		err := RunWithArgs("test", []string{"frobnicate"})
		assert.Error(t, err)
	})
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":  7 * 24 * time.Hour,
		"24h": 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"15m": 15 * time.Minute,
	}
	for in, want := range cases {
		d, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d, in)
	}

	for _, bad := range []string{"", "d", "abc", "7x", "-3d"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTimeArg(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

	got, err := parseTimeArg("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseTimeArg("2026-03-01T10:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), got)

	got, err = parseTimeArg("09:15", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC), got)

	got, err = parseTimeArg("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), got)

	_, err = parseTimeArg("yesterday-ish", now)
	assert.Error(t, err)
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "15m0s", formatDurationHuman(15*time.Minute))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234", formatNumber(1234))
	assert.Equal(t, "123,456", formatNumber(123456))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "1.0 GB", formatBytes(1<<30))
}

func TestRequireSQLite(t *testing.T) {
	cfg := testConfig(t)
	assert.NoError(t, requireSQLite(cfg, "status"))

	cfg.Storage.Backend = "postgrest"
	err := requireSQLite(cfg, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status requires the sqlite backend")
}

func TestOpenBackendUnsupported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "mongo"
	_, err := openBackend(cfg)
	assert.EqualError(t, err, "unsupported storage backend: mongo")
}

func TestOpenBackendPostgrestNeedsKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "postgrest"
	cfg.Storage.PostgrestKeyEnv = "SECONDBRAIN_TEST_MISSING_KEY"
	t.Setenv("SECONDBRAIN_TEST_MISSING_KEY", "")

	_, err := openBackend(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$SECONDBRAIN_TEST_MISSING_KEY")
}
