package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/llm"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// ErrNoLLM is returned by operations that need a text-generation backend
// when none is configured.
var ErrNoLLM = errors.New("no llm provider configured")

// Deps are the collaborators of an Engine. Summaries is required; the
// rest are optional.
type Deps struct {
	Summaries storage.SummaryStore
	Events    storage.EventStore
	LLM       llm.Client
	// Rewrite enables a single LLM restatement retry when every tier is empty.
	Rewrite bool
	Apps    []string
	Now     func() time.Time
	Logger  logrus.FieldLogger
}

// Engine resolves questions against the stores, falling back from
// windowed summaries to raw events to content search. It is safe for
// concurrent use.
type Engine struct {
	summaries storage.SummaryStore
	events    storage.EventStore
	llm       llm.Client
	rewrite   bool
	apps      atomic.Pointer[AppMatcher]
	now       func() time.Time
	log       logrus.FieldLogger
}

// NewEngine creates an Engine.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		summaries: d.Summaries,
		events:    d.Events,
		llm:       d.LLM,
		rewrite:   d.Rewrite,
		now:       d.Now,
		log:       logging.OrDiscard(d.Logger),
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.apps.Store(NewAppMatcher(d.Apps))
	return e
}

// SetKnownApps replaces the app list used for filters.
func (e *Engine) SetKnownApps(apps []string) {
	e.apps.Store(NewAppMatcher(apps))
}

// KnownApps returns the current app list.
func (e *Engine) KnownApps() []string {
	return append([]string(nil), e.apps.Load().Apps...)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Resolve answers query. It never fails: store errors are logged and
// treated as an empty tier, and the result is Empty when nothing matched.
func (e *Engine) Resolve(ctx context.Context, query string) Result {
	res := e.resolveTiers(ctx, query)
	if !res.IsEmpty() || !e.rewrite || e.llm == nil {
		return res
	}

	rewritten := e.rewriteQuery(ctx, query)
	if rewritten == "" {
		return res
	}
	second := e.resolveTiers(ctx, rewritten)
	if second.IsEmpty() {
		return res
	}
	second.Query = query
	second.Rewritten = rewritten
	return second
}

func (e *Engine) resolveTiers(ctx context.Context, query string) Result {
	now := e.now()
	tf := ParseTimeframe(query, now)
	app := e.apps.Load().Extract(query)
	log := e.log.WithFields(logrus.Fields{"query": query, "app": app, "timeframe": tf.Description})

	if e.summaries != nil {
		summaries, err := e.summaries.SummariesInTimeframe(ctx, tf.Start, tf.End)
		if err != nil {
			log.WithError(err).Warn("windowed summary lookup failed")
		} else if matched := filterSummaries(summaries, app); len(matched) > 0 {
			res := SummariesResult(matched, tf, query, app)
			res.Tier = TierWindow
			return res
		}
	}

	if e.events != nil {
		events, err := e.events.EventsInTimeframe(ctx, tf.Start, tf.End)
		if err != nil {
			log.WithError(err).Warn("event lookup failed")
		} else if matched := filterEvents(events, app); len(matched) > 0 {
			res := EventsResult(matched, tf, query, app)
			res.Tier = TierEvents
			return res
		}
	}

	if matched := e.search(ctx, SanitizeSearchTerm(query), app, log); len(matched) > 0 {
		res := SummariesResult(matched, tf, query, app)
		res.Tier = TierSearch
		return res
	}

	log.Debug("no tier matched")
	return EmptyResult(tf, query, app)
}

// Search runs a content search for term only, ignoring time phrases.
func (e *Engine) Search(ctx context.Context, term string) Result {
	term = strings.TrimSpace(term)
	tf := ParseTimeframe(term, e.now())
	log := e.log.WithField("term", term)

	if matched := e.search(ctx, SanitizeSearchTerm(term), "", log); len(matched) > 0 {
		res := SummariesResult(matched, tf, term, "")
		res.Tier = TierSearch
		return res
	}
	return EmptyResult(tf, term, "")
}

func (e *Engine) search(ctx context.Context, term, app string, log logrus.FieldLogger) []activity.Summary {
	if e.summaries == nil {
		return nil
	}
	summaries, err := e.summaries.SearchSummaries(ctx, term)
	if err != nil {
		log.WithError(err).Warn("summary search failed")
		return nil
	}
	return filterSummaries(summaries, app)
}

func (e *Engine) rewriteQuery(ctx context.Context, query string) string {
	prompt := "Rewrite the following question about a user's computer activity as a short search phrase. " +
		"Keep any time phrase (such as today, yesterday, last week) and any application name. " +
		"Reply with the phrase only.\n\nQuestion: " + query

	out, err := e.llm.GenerateText(ctx, prompt)
	if err != nil {
		e.log.WithError(err).Warn("query rewrite failed")
		return ""
	}
	out = strings.Trim(strings.TrimSpace(out), "\"'`")
	if strings.EqualFold(out, strings.TrimSpace(query)) {
		return ""
	}
	e.log.WithFields(logrus.Fields{"query": query, "rewritten": out}).Debug("retrying with rewritten query")
	return out
}

// Summarize asks the LLM for an overview of the summaries in res.
func (e *Engine) Summarize(ctx context.Context, res Result) (string, error) {
	if len(res.Summaries) == 0 {
		return "No activities found for the specified criteria.", nil
	}
	if e.llm == nil {
		return "", ErrNoLLM
	}

	lines := make([]string, 0, len(res.Summaries))
	for _, s := range res.Summaries {
		lines = append(lines, fmt.Sprintf("[%s to %s] %s",
			s.StartTime.Local().Format("2006-01-02 15:04"),
			s.EndTime.Local().Format("2006-01-02 15:04"),
			s.Description))
	}
	prompt := "Below are summaries of user activities over time. " +
		"Please create a concise summary that explains the overall pattern and main focuses.\n\n" +
		strings.Join(lines, "\n")

	out, err := e.llm.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing results: %w", err)
	}
	return out, nil
}

func filterSummaries(summaries []activity.Summary, app string) []activity.Summary {
	if app == "" {
		return summaries
	}
	var out []activity.Summary
	for _, s := range summaries {
		if summaryMentions(s, app) {
			out = append(out, s)
		}
	}
	return out
}

func summaryMentions(s activity.Summary, app string) bool {
	if containsFold(s.Description, app) {
		return true
	}
	for _, t := range s.Tags {
		if containsFold(t, app) {
			return true
		}
	}
	for _, ev := range s.Events {
		if containsFold(ev.Context.AppName, app) {
			return true
		}
	}
	return false
}

func filterEvents(events []activity.Event, app string) []activity.Event {
	if app == "" {
		return events
	}
	var out []activity.Event
	for _, ev := range events {
		if containsFold(ev.Context.AppName, app) {
			out = append(out, ev)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
