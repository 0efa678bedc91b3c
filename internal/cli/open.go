package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required")
	}

	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()
	if err := requireSQLite(env.cfg, "open"); err != nil {
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

// executeWithStore prints the summary from store (used by tests).
func (c *OpenCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore) error {
	sum, err := store.GetSummary(ctx, c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("summary not found: %s", c.ID)
		}
		return err
	}

	format := c.Format
	if c.globals != nil && c.globals.JSON {
		format = "json"
	}

	switch format {
	case "json":
		return printJSON(sum)
	case "full", "":
		printSummaryFull(sum)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use full or json)", format)
	}
}

func printSummaryFull(s *activity.Summary) {
	fmt.Printf("ID:      %s\n", s.ID)
	fmt.Printf("Start:   %s\n", s.StartTime.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("End:     %s\n", s.EndTime.Local().Format("2006-01-02 15:04:05"))
	if len(s.Tags) > 0 {
		fmt.Printf("Tags:    %s\n", strings.Join(s.Tags, ", "))
	}
	fmt.Println()
	fmt.Println(s.Description)

	if len(s.Events) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("Events (%d):\n", len(s.Events))
	for _, e := range s.Events {
		key := e.Kind
		if k, ok := e.Keystroke(); ok {
			key = strings.Join(append(append([]string(nil), k.Modifiers...), k.Key), "+")
		}
		fmt.Printf("  %s  %-12s %-16s %s\n",
			e.Timestamp.Local().Format("15:04:05"), key, e.Context.AppName, e.Context.WindowTitle)
	}
}
