package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/secondbrain/internal/format"
	"github.com/runnerr0/secondbrain/internal/query"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	term := strings.TrimSpace(strings.Join(args, " "))
	if term == "" {
		return fmt.Errorf("search requires a term")
	}

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

	engine := newEngine(env.cfg, b, nil, env.log)
	return c.executeWithEngine(context.Background(), engine, term)
}

// executeWithEngine runs the search and prints results (used by tests).
func (c *SearchCommand) executeWithEngine(ctx context.Context, engine *query.Engine, term string) error {
	res := engine.Search(ctx, term)
	if c.Limit > 0 && len(res.Summaries) > c.Limit {
		res.Summaries = res.Summaries[:c.Limit]
	}

	outFmt := c.Format
	if c.globals != nil && c.globals.JSON {
		outFmt = format.JSON
	}
	return format.WriteResult(os.Stdout, res, format.Resolve(outFmt, os.Stdout), format.Width(os.Stdout))
}
