// Package probe reports which application currently has input focus.
package probe

import (
	"context"
	"sync/atomic"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// Probe returns the foreground application context. Implementations must
// return promptly and fall back to activity.UnknownContext on any failure.
type Probe interface {
	Probe(ctx context.Context) activity.AppContext
}

// Browsers is the set of app-name fragments treated as web browsers. It can
// be replaced while probes are running.
type Browsers struct {
	list atomic.Pointer[[]string]
}

// NewBrowsers returns the default browser set extended with extra.
func NewBrowsers(defaults, extra []string) *Browsers {
	b := &Browsers{}
	b.Set(defaults, extra)
	return b
}

// Set replaces the browser set.
func (b *Browsers) Set(defaults, extra []string) {
	list := make([]string, 0, len(defaults)+len(extra))
	list = append(list, defaults...)
	list = append(list, extra...)
	b.list.Store(&list)
}

// List returns the current browser set.
func (b *Browsers) List() []string {
	if b == nil {
		return nil
	}
	if p := b.list.Load(); p != nil {
		return *p
	}
	return nil
}

// StaticProbe always reports the same context. The URL is derived from the
// title the same way the OS probes do it.
type StaticProbe struct {
	AppName     string
	WindowTitle string
	Browsers    *Browsers
}

func (s StaticProbe) Probe(context.Context) activity.AppContext {
	if s.AppName == "" {
		return activity.UnknownContext()
	}
	return activity.AppContext{
		AppName:     s.AppName,
		WindowTitle: s.WindowTitle,
		URL:         ExtractURL(s.AppName, s.WindowTitle, s.Browsers.List()),
	}
}
