package query

import "github.com/runnerr0/secondbrain/internal/activity"

// ResultKind tags which variant a Result holds.
type ResultKind string

const (
	ResultSummaries ResultKind = "summaries"
	ResultEvents    ResultKind = "events"
	ResultEmpty     ResultKind = "empty"
)

// Tier names the resolution step that produced a result.
type Tier string

const (
	TierNone   Tier = ""
	TierWindow Tier = "window"
	TierEvents Tier = "events"
	TierSearch Tier = "search"
)

// Result is the outcome of resolving one query. Only the slice matching
// Kind is populated.
type Result struct {
	Kind      ResultKind         `json:"kind"`
	Summaries []activity.Summary `json:"summaries,omitempty"`
	Events    []activity.Event   `json:"events,omitempty"`
	Timeframe Timeframe          `json:"timeframe"`
	Query     string             `json:"query"`
	AppFilter string             `json:"app_filter,omitempty"`
	Tier      Tier               `json:"tier,omitempty"`
	// Rewritten is the LLM restatement that produced this result, if any.
	Rewritten string `json:"rewritten,omitempty"`
}

func SummariesResult(summaries []activity.Summary, tf Timeframe, query, app string) Result {
	return Result{Kind: ResultSummaries, Summaries: summaries, Timeframe: tf, Query: query, AppFilter: app}
}

func EventsResult(events []activity.Event, tf Timeframe, query, app string) Result {
	return Result{Kind: ResultEvents, Events: events, Timeframe: tf, Query: query, AppFilter: app}
}

func EmptyResult(tf Timeframe, query, app string) Result {
	return Result{Kind: ResultEmpty, Timeframe: tf, Query: query, AppFilter: app}
}

// IsEmpty reports whether no tier found anything.
func (r Result) IsEmpty() bool {
	return r.Kind == ResultEmpty
}
