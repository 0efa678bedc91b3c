// Package summarize rolls raw events up into stored activity summaries.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/storage"
)

const (
	DefaultInterval = 5 * time.Minute
	topAppCount     = 3
	topKeyCount     = 5
)

// Options configure a Summarizer. Events and Summaries are required.
type Options struct {
	Events    storage.EventStore
	Summaries storage.SummaryStore
	// LLM, when set, contributes extra tags.
	LLM      llm.Client
	Interval time.Duration
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

// Summarizer periodically describes recent events and stores the result.
type Summarizer struct {
	events    storage.EventStore
	summaries storage.SummaryStore
	llm       llm.Client
	interval  time.Duration
	now       func() time.Time
	log       logrus.FieldLogger
}

func New(opts Options) *Summarizer {
	s := &Summarizer{
		events:    opts.Events,
		summaries: opts.Summaries,
		llm:       opts.LLM,
		interval:  opts.Interval,
		now:       opts.Now,
		log:       logging.OrDiscard(opts.Logger),
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run summarizes the trailing interval on every tick until ctx is done.
func (s *Summarizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			end := s.now()
			if _, err := s.SummarizeWindow(ctx, end.Add(-s.interval), end); err != nil {
				s.log.WithError(err).Warn("summarizing window failed")
			}
		}
	}
}

// SummarizeWindow builds and stores a summary of events in [start, end].
// It returns nil without storing anything when the window has no events.
func (s *Summarizer) SummarizeWindow(ctx context.Context, start, end time.Time) (*activity.Summary, error) {
	events, err := s.events.EventsInTimeframe(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	if len(events) == 0 {
		s.log.WithFields(logrus.Fields{"start": start, "end": end}).Debug("no events to summarize")
		return nil, nil
	}

	apps := topCounts(events, topAppCount, func(e activity.Event) string { return e.Context.AppName })
	keys := topCounts(events, topKeyCount, func(e activity.Event) string {
		k, _ := e.Keystroke()
		return k.Key
	})

	summary := &activity.Summary{
		StartTime:   start,
		EndTime:     end,
		Description: describe(start, end, len(events), apps, keys),
		Events:      events,
	}

	tags := make([]string, 0, len(apps)+5)
	for _, a := range apps {
		tags = append(tags, strings.ToLower(a.name))
	}
	if s.llm != nil {
		extra, err := s.llm.ExtractTags(ctx, summary.Description)
		if err != nil {
			s.log.WithError(err).Warn("tag extraction failed")
		}
		tags = append(tags, extra...)
	}
	summary.Tags = dedupe(tags)

	if err := s.summaries.StoreSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("storing summary: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"id":     summary.ID,
		"events": len(events),
		"tags":   summary.Tags,
	}).Info("stored activity summary")
	return summary, nil
}

type count struct {
	name string
	n    int
}

func (c count) String() string {
	return fmt.Sprintf("%s (%d)", c.name, c.n)
}

// topCounts tallies key(e) over events and returns the limit most common
// values. Ties sort by name. Empty keys are skipped.
func topCounts(events []activity.Event, limit int, key func(activity.Event) string) []count {
	tally := map[string]int{}
	for _, e := range events {
		if k := key(e); k != "" {
			tally[k]++
		}
	}
	out := make([]count, 0, len(tally))
	for name, n := range tally {
		out = append(out, count{name: name, n: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].name < out[j].name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func describe(start, end time.Time, n int, apps, keys []count) string {
	return fmt.Sprintf("During this session (%s to %s) the user was active with %d events. Top applications: %s. Most used keys: %s.",
		start.Local().Format("15:04"), end.Local().Format("15:04"), n, joinCounts(apps), joinCounts(keys))
}

func joinCounts(cs []count) string {
	if len(cs) == 0 {
		return "none"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
