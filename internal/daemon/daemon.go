// Package daemon runs capture, flushing, summarizing and the recall
// service together until the process is told to stop.
package daemon

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/capture"
	"github.com/runnerr0/secondbrain/internal/config"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/probe"
	"github.com/runnerr0/secondbrain/internal/query"
	"github.com/runnerr0/secondbrain/internal/recall"
	"github.com/runnerr0/secondbrain/internal/storage"
	"github.com/runnerr0/secondbrain/internal/summarize"
)

// Options wire a Daemon. Config, Events and Summaries are required.
type Options struct {
	Config *config.Config
	// ConfigPath, when set, is watched for app and browser list changes.
	ConfigPath string
	Logger     logrus.FieldLogger

	// Source is nil when capture is disabled.
	Source   capture.InputSource
	Probe    probe.Probe
	Browsers *probe.Browsers

	Events    storage.EventStore
	Summaries storage.SummaryStore
	LLM       llm.Client

	// Listener overrides listening on Config's recall address.
	Listener net.Listener
	Now      func() time.Time
}

// Daemon is the long-running secondbrain process.
type Daemon struct {
	opts   Options
	log    logrus.FieldLogger
	buffer *activity.EventBuffer
	engine *query.Engine
}

func New(opts Options) *Daemon {
	cfg := opts.Config
	d := &Daemon{
		opts:   opts,
		log:    logging.OrDiscard(opts.Logger),
		buffer: activity.NewEventBuffer(cfg.Capture.BufferSize),
	}

	var rewriter llm.Client
	if cfg.Query.Rewrite {
		rewriter = opts.LLM
	}
	d.engine = query.NewEngine(query.Deps{
		Summaries: opts.Summaries,
		Events:    opts.Events,
		LLM:       rewriter,
		Rewrite:   cfg.Query.Rewrite,
		Apps:      cfg.Query.KnownApps,
		Now:       opts.Now,
		Logger:    d.log.WithField("component", "query"),
	})
	return d
}

// Engine returns the query engine shared by recall connections.
func (d *Daemon) Engine() *query.Engine {
	return d.engine
}

// Buffer returns the capture buffer.
func (d *Daemon) Buffer() *activity.EventBuffer {
	return d.buffer
}

// Run starts every component and blocks until ctx is done or the recall
// service fails. A capture failure stops capture only.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := d.opts.Config
	var wg sync.WaitGroup
	goRun := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if d.opts.Source != nil {
		p := d.opts.Probe
		if p == nil {
			p = probe.StaticProbe{}
		}
		pipeline := capture.NewPipeline(d.opts.Source, p, d.buffer, d.log.WithField("component", "capture"))
		flusher := capture.NewFlusher(d.buffer, d.opts.Events,
			time.Duration(cfg.Capture.FlushIntervalMS)*time.Millisecond, cfg.Capture.FlushBatch,
			d.log.WithField("component", "flusher"))

		goRun(func() { _ = pipeline.Run(ctx) })
		goRun(func() { flusher.Run(ctx) })
	} else {
		d.log.Info("capture disabled")
	}

	if cfg.Summarize.Enabled {
		s := summarize.New(summarize.Options{
			Events:    d.opts.Events,
			Summaries: d.opts.Summaries,
			LLM:       d.tagger(),
			Interval:  time.Duration(cfg.Summarize.IntervalMinutes) * time.Minute,
			Now:       d.opts.Now,
			Logger:    d.log.WithField("component", "summarize"),
		})
		goRun(func() { s.Run(ctx) })
	}

	if d.opts.ConfigPath != "" {
		goRun(func() {
			err := config.Watch(ctx, d.opts.ConfigPath, d.log.WithField("component", "config"), d.reload)
			if err != nil {
				d.log.WithError(err).Warn("config watch unavailable")
			}
		})
	}

	formatter := recall.NewFormatter(cfg.Recall.AppAliases)
	formatter.Browsers = d.opts.Browsers
	server := &recall.Server{
		Resolver:       d.engine,
		Formatter:      formatter,
		Timeout:        time.Duration(cfg.Recall.RequestTimeoutSeconds) * time.Second,
		MaxRequestSize: cfg.Recall.MaxRequestSize,
		Logger:         d.log.WithField("component", "recall"),
	}

	var err error
	if d.opts.Listener != nil {
		err = server.Serve(ctx, d.opts.Listener)
	} else {
		err = server.ListenAndServe(ctx, cfg.RecallAddr())
	}
	if err != nil {
		d.log.WithError(err).Error("recall service stopped")
	}

	cancel()
	wg.Wait()
	d.log.WithField("dropped", d.buffer.Dropped()).Info("daemon stopped")
	return err
}

func (d *Daemon) tagger() llm.Client {
	if !d.opts.Config.Summarize.ExtractTags {
		return nil
	}
	return d.opts.LLM
}

// reload applies the parts of a changed config that can change live.
func (d *Daemon) reload(cfg *config.Config) {
	d.engine.SetKnownApps(cfg.Query.KnownApps)
	if d.opts.Browsers != nil {
		d.opts.Browsers.Set(config.DefaultBrowsers(), cfg.Probe.Browsers)
	}
	d.log.WithFields(logrus.Fields{
		"known_apps": len(cfg.Query.KnownApps),
		"browsers":   len(cfg.Probe.Browsers),
	}).Info("config reloaded")
}
