package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("--description is required for add command")
	}

	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	b, err := openBackend(env.cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer b.Close()

	return c.executeWithStore(context.Background(), b.summaries, time.Now())
}

// executeWithStore validates the flags and stores the summary (used by tests).
func (c *AddCommand) executeWithStore(ctx context.Context, store storage.SummaryStore, now time.Time) error {
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("--description is required for add command")
	}

	start, err := parseTimeArg(c.Start, now)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseTimeArg(c.End, now)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("--end (%s) is before --start (%s)", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	var tags []string
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	sum := &activity.Summary{
		StartTime:   start,
		EndTime:     end,
		Description: strings.TrimSpace(c.Description),
		Tags:        tags,
	}
	if err := store.StoreSummary(ctx, sum); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"id":         sum.ID,
			"start_time": sum.StartTime.UTC().Format(time.RFC3339),
			"end_time":   sum.EndTime.UTC().Format(time.RFC3339),
		})
	}
	fmt.Printf("Added summary %s (%s to %s)\n", sum.ID,
		sum.StartTime.Local().Format("2006-01-02 15:04"), sum.EndTime.Local().Format("15:04"))
	return nil
}
