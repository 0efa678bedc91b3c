package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/summarize"
)

// Execute implements the go-flags Commander interface for SummarizeCommand.
func (c *SummarizeCommand) Execute(args []string) error {
	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	b, err := openBackend(env.cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	var tagger llm.Client
	if env.cfg.Summarize.ExtractTags {
		if tagger, err = llm.New(env.cfg.LLM); err != nil {
			return err
		}
	}

	s := summarize.New(summarize.Options{
		Events:    b.events,
		Summaries: b.summaries,
		LLM:       tagger,
		Logger:    env.log,
	})
	return c.executeWithSummarizer(context.Background(), s, time.Now())
}

// executeWithSummarizer summarizes the window ending at now (used by tests).
func (c *SummarizeCommand) executeWithSummarizer(ctx context.Context, s *summarize.Summarizer, now time.Time) error {
	since, err := parseDuration(c.Since)
	if err != nil {
		return fmt.Errorf("--since: %w", err)
	}

	sum, err := s.SummarizeWindow(ctx, now.Add(-since), now)
	if err != nil {
		return err
	}

	jsonOut := c.globals != nil && c.globals.JSON
	if sum == nil {
		if jsonOut {
			return printJSON(map[string]interface{}{"summarized": false, "since": c.Since})
		}
		fmt.Printf("No events in the last %s.\n", c.Since)
		return nil
	}

	if jsonOut {
		return printJSON(sum)
	}
	fmt.Printf("Stored summary %s\n%s\n", sum.ID, sum.Description)
	return nil
}
