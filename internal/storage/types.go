package storage

import (
	"context"
	"time"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// EventStore persists raw activity events.
type EventStore interface {
	StoreEvent(ctx context.Context, event *activity.Event) error
	EventsInTimeframe(ctx context.Context, start, end time.Time) ([]activity.Event, error)
}

// SummaryStore persists activity summaries.
type SummaryStore interface {
	StoreSummary(ctx context.Context, summary *activity.Summary) error
	// SummariesInTimeframe returns summaries overlapping [start, end],
	// newest first.
	SummariesInTimeframe(ctx context.Context, start, end time.Time) ([]activity.Summary, error)
	// SearchSummaries returns summaries whose description or tags contain
	// any whitespace-separated word of term, case-insensitively.
	SearchSummaries(ctx context.Context, term string) ([]activity.Summary, error)
}

// Stats holds aggregate statistics about the local database.
type Stats struct {
	TotalEvents       int64
	TotalSummaries    int64
	OldestEvent       time.Time
	NewestEvent       time.Time
	DatabaseSizeBytes int64
	TopApps           []AppCount
	LastPrune         time.Time
}

// AppCount pairs an application name with its event count.
type AppCount struct {
	AppName string
	Count   int64
}

// PruneResult reports what PruneBefore or PurgeAll removed.
type PruneResult struct {
	Events    int64
	Summaries int64
}
