package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// pruneJSON is the JSON output structure for the prune command.
type pruneJSON struct {
	Cutoff    string `json:"cutoff"`
	DryRun    bool   `json:"dry_run"`
	Events    int64  `json:"events"`
	Summaries int64  `json:"summaries"`
	Archive   string `json:"archive,omitempty"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := requireSQLite(env.cfg, "prune"); err != nil {
		return err
	}

	store, db, err := openSQLite(env.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, env.cfg, time.Now())
}

// executeWithStore prunes store relative to now (used by tests).
func (c *PruneCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, now time.Time) error {
	retention := time.Duration(cfg.Retention.Days) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("--older-than: %w", err)
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	cutoff := now.Add(-retention)
	out := pruneJSON{Cutoff: cutoff.UTC().Format(time.RFC3339), DryRun: c.DryRun}

	if c.DryRun {
		counts, err := store.CountBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		out.Events, out.Summaries = counts.Events, counts.Summaries
		return c.report(out, retention)
	}

	if c.Archive {
		path, err := c.archive(ctx, store, cfg, cutoff, now)
		if err != nil {
			return err
		}
		out.Archive = path
	}

	res, err := store.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	out.Events, out.Summaries = res.Events, res.Summaries
	return c.report(out, retention)
}

// archive writes events older than cutoff to a zstd archive and reads it
// back before anything is deleted.
func (c *PruneCommand) archive(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, cutoff, now time.Time) (string, error) {
	events, err := store.EventsBefore(ctx, cutoff)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}

	dir, err := config.ExpandPath(cfg.Retention.ArchiveDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dir) {
		dataDir, err := cfg.DataDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(dataDir, dir)
	}

	path, err := storage.ArchiveEvents(dir, events, now)
	if err != nil {
		return "", err
	}
	back, err := storage.ReadArchive(path)
	if err != nil {
		return "", fmt.Errorf("verify archive: %w", err)
	}
	if len(back) != len(events) {
		return "", fmt.Errorf("verify archive: wrote %d events, read %d", len(events), len(back))
	}
	return path, nil
}

func (c *PruneCommand) report(out pruneJSON, retention time.Duration) error {
	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	verb := "Pruned"
	if out.DryRun {
		verb = "Would prune"
	}
	fmt.Printf("%s %s events and %s summaries older than %s.\n",
		verb, formatNumber(out.Events), formatNumber(out.Summaries), formatDurationHuman(retention))
	if out.Archive != "" {
		fmt.Printf("Archived events to %s\n", out.Archive)
	}
	return nil
}
