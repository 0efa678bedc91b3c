package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/probe"
)

// Pipeline is the capture producer: it turns key presses into keystroke
// events tagged with the foreground app and pushes them onto a buffer.
// It never touches durable storage.
type Pipeline struct {
	source InputSource
	probe  probe.Probe
	buffer *activity.EventBuffer
	log    logrus.FieldLogger
	now    func() time.Time

	// Only touched from the source's handler goroutine.
	shift, ctrl, alt, meta bool
	last                   time.Time
}

// NewPipeline creates a capture pipeline.
func NewPipeline(source InputSource, p probe.Probe, buffer *activity.EventBuffer, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		source: source,
		probe:  p,
		buffer: buffer,
		log:    logging.OrDiscard(log),
		now:    time.Now,
	}
}

// Run captures until ctx is done (returning nil) or the input source fails.
// A source failure is logged and returned; capture does not restart itself.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("capture started")
	err := p.source.Listen(ctx, func(ev InputEvent) { p.handle(ctx, ev) })
	if err != nil && ctx.Err() == nil {
		p.log.WithError(err).Error("input listener failed, capture stopped")
		return fmt.Errorf("capture: %w", err)
	}
	p.log.Info("capture stopped")
	return nil
}

func (p *Pipeline) handle(ctx context.Context, ev InputEvent) {
	if ev.Kind != KeyDown && ev.Kind != KeyUp {
		return
	}
	if mod, ok := modifierOf(ev.Key); ok {
		p.setModifier(mod, ev.Kind == KeyDown)
		return
	}
	if ev.Kind != KeyDown {
		return
	}

	ts := p.now()
	if ts.Before(p.last) {
		ts = p.last
	}
	p.last = ts

	e, err := activity.NewKeystrokeEvent(ts, string(ev.Key), p.modifiers(), p.probe.Probe(ctx))
	if err != nil {
		p.log.WithError(err).Warn("encode keystroke")
		return
	}
	if p.buffer.Push(e) {
		p.log.Debug("event buffer full, oldest event evicted")
	}
}

func (p *Pipeline) setModifier(mod string, down bool) {
	switch mod {
	case activity.ModShift:
		p.shift = down
	case activity.ModCtrl:
		p.ctrl = down
	case activity.ModAlt:
		p.alt = down
	case activity.ModMeta:
		p.meta = down
	}
}

func (p *Pipeline) modifiers() []string {
	mods := make([]string, 0, 4)
	if p.shift {
		mods = append(mods, activity.ModShift)
	}
	if p.ctrl {
		mods = append(mods, activity.ModCtrl)
	}
	if p.alt {
		mods = append(mods, activity.ModAlt)
	}
	if p.meta {
		mods = append(mods, activity.ModMeta)
	}
	return mods
}
