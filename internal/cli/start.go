package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/runnerr0/secondbrain/internal/capture"
	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/daemon"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/probe"
)

// demoText is typed by the --demo input source.
const demoText = "vim notes.md\nHello from secondbrain\n"

// Execute implements the go-flags Commander interface for StartCommand.
func (c *StartCommand) Execute(args []string) error {
	env, err := loadEnv(c.globals)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg
	if c.Port > 0 {
		cfg.Recall.Port = c.Port
	}
	if c.Demo {
		cfg.Capture.Demo = true
	}
	if c.NoCapture {
		cfg.Capture.Enabled = false
	}

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}
	if oc, ok := client.(*llm.OllamaClient); ok {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := oc.CheckModel(checkCtx); err != nil {
			env.log.WithError(err).Warn("llm unavailable; tags and query rewrites will be skipped until it responds")
		}
		cancel()
	}

	browsers := probe.NewBrowsers(config.DefaultBrowsers(), cfg.Probe.Browsers)
	opts := daemon.Options{
		Config:     cfg,
		ConfigPath: env.cfgPath,
		Logger:     env.log,
		Browsers:   browsers,
		Events:     b.events,
		Summaries:  b.summaries,
		LLM:        client,
	}

	switch {
	case !cfg.Capture.Enabled:
	case cfg.Capture.Demo:
		opts.Source = &capture.ScriptSource{Events: capture.Typed(demoText)}
		opts.Probe = probe.StaticProbe{AppName: "ghostty", WindowTitle: "vim notes.md", Browsers: browsers}
	default:
		opts.Source = capture.NewEvdevSource(cfg.Capture.Devices, env.log.WithField("component", "evdev"))
		opts.Probe = probe.NewOSProbe(time.Duration(cfg.Probe.TimeoutMS)*time.Millisecond, browsers,
			env.log.WithField("component", "probe"))
	}

	fmt.Printf("secondbrain %s: recall service on %s (capture %s)\n",
		c.version, cfg.RecallAddr(), captureMode(cfg))
	return daemon.New(opts).Run(ctx)
}

func captureMode(cfg *config.Config) string {
	switch {
	case !cfg.Capture.Enabled:
		return "off"
	case cfg.Capture.Demo:
		return "demo"
	default:
		return "on, buffer " + strconv.Itoa(cfg.Capture.BufferSize)
	}
}
