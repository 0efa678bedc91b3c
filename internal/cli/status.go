package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string         `json:"version"`
	DatabasePath      string         `json:"database_path"`
	DatabaseSizeBytes int64          `json:"database_size_bytes"`
	TotalEvents       int64          `json:"total_events"`
	TotalSummaries    int64          `json:"total_summaries"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
	LastPrune         string         `json:"last_prune,omitempty"`
	RetentionDays     int            `json:"retention_days"`
	TopApps           []appCountJSON `json:"top_apps"`
	RecallAddr        string         `json:"recall_addr"`
	DaemonRunning     bool           `json:"daemon_running"`
	LLMProvider       string         `json:"llm_provider"`
}

type appCountJSON struct {
	App   string `json:"app"`
	Count int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := requireSQLite(env.cfg, "status"); err != nil {
		return err
	}

	store, db, err := openSQLite(env.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, env.cfg)
}

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, _ := cfg.DBPath()
	dbSize := stats.DatabaseSizeBytes
	if info, err := os.Stat(dbPath); err == nil {
		dbSize = info.Size()
	}

	addr := cfg.RecallAddr()
	daemonRunning := checkDaemon(addr)

	if c.globals != nil && c.globals.JSON {
		out := statusJSON{
			Version:           c.version,
			DatabasePath:      dbPath,
			DatabaseSizeBytes: dbSize,
			TotalEvents:       stats.TotalEvents,
			TotalSummaries:    stats.TotalSummaries,
			RetentionDays:     cfg.Retention.Days,
			TopApps:           make([]appCountJSON, len(stats.TopApps)),
			RecallAddr:        addr,
			DaemonRunning:     daemonRunning,
			LLMProvider:       cfg.LLM.Provider,
		}
		if stats.TotalEvents > 0 {
			out.OldestEvent = stats.OldestEvent.UTC().Format(time.RFC3339)
			out.NewestEvent = stats.NewestEvent.UTC().Format(time.RFC3339)
		}
		if !stats.LastPrune.IsZero() {
			out.LastPrune = stats.LastPrune.UTC().Format(time.RFC3339)
		}
		for i, a := range stats.TopApps {
			out.TopApps[i] = appCountJSON{App: a.AppName, Count: a.Count}
		}
		return printJSON(out)
	}

	fmt.Println("secondbrain status")
	fmt.Println("==================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Events:        %s\n", formatNumber(stats.TotalEvents))
	fmt.Printf("Summaries:     %s\n", formatNumber(stats.TotalSummaries))
	if stats.TotalEvents > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestEvent.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Newest:        %s\n", stats.NewestEvent.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("Retention:     %d days\n", cfg.Retention.Days)
	if !stats.LastPrune.IsZero() {
		fmt.Printf("Last prune:    %s\n", stats.LastPrune.Local().Format("2006-01-02 15:04"))
	}

	if len(stats.TopApps) > 0 {
		fmt.Println()
		fmt.Println("Top Apps:")
		for _, a := range stats.TopApps {
			fmt.Printf("  %-20s %s\n", a.AppName, formatNumber(a.Count))
		}
	}

	fmt.Println()
	if daemonRunning {
		fmt.Printf("Daemon:        running (%s)\n", addr)
	} else {
		fmt.Printf("Daemon:        not running (%s)\n", addr)
	}
	fmt.Printf("LLM:           %s\n", cfg.LLM.Provider)

	return nil
}

// checkDaemon reports whether something accepts TCP connections on addr
// within one second.
func checkDaemon(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
