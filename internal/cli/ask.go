package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/format"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/probe"
	"github.com/runnerr0/secondbrain/internal/query"
	"github.com/runnerr0/secondbrain/internal/recall"
)

const formatText = "text"

// Execute implements the go-flags Commander interface for AskCommand.
func (c *AskCommand) Execute(args []string) error {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" {
		return fmt.Errorf("ask requires a question, e.g. secondbrain ask what did I do today")
	}

	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	if c.Remote {
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(env.cfg.Recall.RequestTimeoutSeconds+5)*time.Second)
		defer cancel()
		resp, err := recall.Ask(ctx, env.cfg.RecallAddr(), q)
		if err != nil {
			return fmt.Errorf("is the daemon running? %w", err)
		}
		fmt.Println(strings.TrimRight(resp, "\n"))
		return nil
	}

	b, err := openBackend(env.cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	client, err := llm.New(env.cfg.LLM)
	if err != nil {
		return err
	}

	engine := newEngine(env.cfg, b, client, env.log)
	return c.executeWithEngine(context.Background(), engine, env.cfg, q)
}

// executeWithEngine resolves q and prints the result (used by tests).
func (c *AskCommand) executeWithEngine(ctx context.Context, engine *query.Engine, cfg *config.Config, q string) error {
	res := engine.Resolve(ctx, q)

	outFmt := c.Format
	if c.globals != nil && c.globals.JSON {
		outFmt = format.JSON
	}

	if outFmt == formatText {
		f := recall.NewFormatter(cfg.Recall.AppAliases)
		f.Browsers = probe.NewBrowsers(config.DefaultBrowsers(), cfg.Probe.Browsers)
		fmt.Println(strings.TrimRight(f.Format(res), "\n"))
	} else if err := format.WriteResult(os.Stdout, res, format.Resolve(outFmt, os.Stdout), format.Width(os.Stdout)); err != nil {
		return err
	}

	if c.Summarize && res.Kind == query.ResultSummaries {
		overview, err := engine.Summarize(ctx, res)
		if err != nil {
			return fmt.Errorf("summarize results: %w", err)
		}
		fmt.Printf("\n%s\n", overview)
	}
	return nil
}
