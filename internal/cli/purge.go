package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/secondbrain/internal/storage"
)

// purgeConfirmation must be typed exactly to confirm a purge.
const purgeConfirmation = "PURGE"

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}

	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := requireSQLite(env.cfg, "purge"); err != nil {
		return err
	}

	store, db, err := openSQLite(env.cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store)
}

// confirm shows what a purge deletes and reads the confirmation line.
func (c *PurgeCommand) confirm() error {
	fmt.Println("⚠ WARNING: This will permanently delete ALL secondbrain data.")
	fmt.Println("  - All captured keystroke events")
	fmt.Println("  - All activity summaries and their tags")
	fmt.Println()
	fmt.Println("Archives written by prune --archive are kept.")
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Printf("Type %q to confirm: ", purgeConfirmation)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != purgeConfirmation {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithStore deletes everything in store (used by tests).
func (c *PurgeCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore) error {
	res, err := store.PurgeAll(ctx)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"purged":    true,
			"events":    res.Events,
			"summaries": res.Summaries,
		})
	}

	fmt.Printf("Purged %s events and %s summaries. secondbrain is empty.\n",
		formatNumber(res.Events), formatNumber(res.Summaries))
	return nil
}
