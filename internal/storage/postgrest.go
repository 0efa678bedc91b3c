package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// Remote table names.
const (
	eventsTable    = "activity_events"
	summariesTable = "activity_summaries"
)

// PostgrestStore implements EventStore and SummaryStore against a Supabase
// (PostgREST) project. The tables mirror the SQLite schema with ts,
// start_time and end_time as timestamptz and events as jsonb.
type PostgrestStore struct {
	client *supabase.Client
}

// NewPostgrestStore creates a store for the project at url using key.
func NewPostgrestStore(url, key string) (*PostgrestStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &PostgrestStore{client: client}, nil
}

type eventRow struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"ts"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	AppName     string          `json:"app_name"`
	WindowTitle string          `json:"window_title"`
	URL         *string         `json:"url"`
}

type summaryRow struct {
	ID          string           `json:"id"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	TagsText    string           `json:"tags_text"`
	Events      []activity.Event `json:"events"`
}

func pgTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (p *PostgrestStore) StoreEvent(_ context.Context, event *activity.Event) error {
	if event.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("generate ID: %w", err)
		}
		event.ID = id
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	row := eventRow{
		ID:          event.ID,
		Timestamp:   event.Timestamp.UTC(),
		Kind:        event.Kind,
		Payload:     event.Payload,
		AppName:     event.Context.AppName,
		WindowTitle: event.Context.WindowTitle,
	}
	if len(row.Payload) == 0 {
		row.Payload = json.RawMessage("{}")
	}
	if event.Context.URL != "" {
		url := event.Context.URL
		row.URL = &url
	}

	if _, _, err := p.client.From(eventsTable).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventsInTimeframe uses a single and() group because postgrest-go keeps one
// filter per column.
func (p *PostgrestStore) EventsInTimeframe(_ context.Context, start, end time.Time) ([]activity.Event, error) {
	resp, _, err := p.client.From(eventsTable).
		Select("*", "", false).
		Or(fmt.Sprintf("and(ts.gte.%s,ts.lte.%s)", pgTime(start), pgTime(end)), "").
		Order("ts", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	var rows []eventRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]activity.Event, 0, len(rows))
	for _, r := range rows {
		e := activity.Event{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			Kind:      r.Kind,
			Payload:   r.Payload,
			Context:   activity.AppContext{AppName: r.AppName, WindowTitle: r.WindowTitle},
		}
		if r.URL != nil {
			e.Context.URL = *r.URL
		}
		events = append(events, e)
	}
	return events, nil
}

func (p *PostgrestStore) StoreSummary(_ context.Context, summary *activity.Summary) error {
	if summary.ID == "" {
		summary.ID = newSummaryID()
	}
	if summary.Tags == nil {
		summary.Tags = []string{}
	}

	row := summaryRow{
		ID:          summary.ID,
		StartTime:   summary.StartTime.UTC(),
		EndTime:     summary.EndTime.UTC(),
		Description: summary.Description,
		Tags:        summary.Tags,
		TagsText:    strings.ToLower(strings.Join(summary.Tags, " ")),
		Events:      summary.Events,
	}
	if row.Events == nil {
		row.Events = []activity.Event{}
	}

	if _, _, err := p.client.From(summariesTable).Insert(row, true, "id", "", "").Execute(); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (p *PostgrestStore) SummariesInTimeframe(_ context.Context, start, end time.Time) ([]activity.Summary, error) {
	s, e := pgTime(start), pgTime(end)
	overlap := fmt.Sprintf(
		"and(start_time.gte.%[1]s,start_time.lte.%[2]s),and(end_time.gte.%[1]s,end_time.lte.%[2]s),and(start_time.lte.%[1]s,end_time.gte.%[2]s)",
		s, e,
	)

	resp, _, err := p.client.From(summariesTable).
		Select("*", "", false).
		Or(overlap, "").
		Order("start_time", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	return decodeSummaries(resp)
}

var orValueCleaner = strings.NewReplacer(`"`, "", `\`, "", ",", " ", "(", " ", ")", " ")

func (p *PostgrestStore) SearchSummaries(_ context.Context, term string) ([]activity.Summary, error) {
	words := strings.Fields(strings.ToLower(orValueCleaner.Replace(term)))

	query := p.client.From(summariesTable).Select("*", "", false)
	if len(words) > 0 {
		var filters []string
		for _, w := range words {
			filters = append(filters,
				fmt.Sprintf(`description.ilike."*%s*"`, w),
				fmt.Sprintf(`tags_text.ilike."*%s*"`, w),
			)
		}
		query = query.Or(strings.Join(filters, ","), "")
	}
	query = query.Order("start_time", &postgrest.OrderOpts{Ascending: false})
	if len(words) == 0 {
		query = query.Limit(10, "")
	}

	resp, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}
	return decodeSummaries(resp)
}

func decodeSummaries(resp []byte) ([]activity.Summary, error) {
	var rows []summaryRow
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}

	summaries := make([]activity.Summary, 0, len(rows))
	for _, r := range rows {
		sum := activity.Summary{
			ID:          r.ID,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Description: r.Description,
			Tags:        r.Tags,
			Events:      r.Events,
		}
		if sum.Tags == nil {
			sum.Tags = []string{}
		}
		if len(sum.Events) == 0 {
			sum.Events = nil
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
