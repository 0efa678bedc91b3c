package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/secondbrain/internal/activity"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	Prefer string
	APIKey string
}

type fakePostgrest struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakePostgrest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   string(body),
		Prefer: r.Header.Get("Prefer"),
		APIKey: r.Header.Get("apikey"),
	})
	status, resp := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if resp == "" {
		resp = "[]"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, resp)
}

func (f *fakePostgrest) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestPostgrest(t *testing.T, fake *fakePostgrest) *PostgrestStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewPostgrestStore(srv.URL, "service-key")
	require.NoError(t, err)
	return store
}

func TestPostgrest_StoreEvent(t *testing.T) {
	fake := &fakePostgrest{status: http.StatusCreated}
	store := newTestPostgrest(t, fake)

	e := keystroke(t, at(10, 0), "KeyA", "firefox")
	e.Context.URL = "https://go.dev"
	require.NoError(t, store.StoreEvent(context.Background(), &e))
	assert.Contains(t, e.ID, "EVT-")

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rest/v1/activity_events", req.Path)
	assert.Equal(t, "service-key", req.APIKey)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &row))
	assert.Equal(t, e.ID, row["id"])
	assert.Equal(t, "firefox", row["app_name"])
	assert.Equal(t, "https://go.dev", row["url"])
	assert.Equal(t, "keystroke", row["kind"])
}

func TestPostgrest_EventsInTimeframe(t *testing.T) {
	fake := &fakePostgrest{body: `[
		{"id":"EVT-1","ts":"2026-03-02T10:05:00Z","kind":"keystroke","payload":{"key":"KeyA","modifiers":[]},
		 "app_name":"slack","window_title":"general","url":null}
	]`}
	store := newTestPostgrest(t, fake)

	events, err := store.EventsInTimeframe(context.Background(), at(10, 0), at(11, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "EVT-1", events[0].ID)
	assert.Equal(t, "slack", events[0].Context.AppName)
	assert.Empty(t, events[0].Context.URL)

	k, ok := events[0].Keystroke()
	require.True(t, ok)
	assert.Equal(t, "KeyA", k.Key)

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/activity_events", req.Path)
	assert.Equal(t, "(and(ts.gte.2026-03-02T10:00:00Z,ts.lte.2026-03-02T11:00:00Z))", req.Query.Get("or"))
	assert.Contains(t, req.Query.Get("order"), "ts.asc")
}

func TestPostgrest_StoreSummaryUpserts(t *testing.T) {
	fake := &fakePostgrest{status: http.StatusCreated}
	store := newTestPostgrest(t, fake)

	sum := &activity.Summary{StartTime: at(10, 0), EndTime: at(11, 0), Description: "coding", Tags: []string{"Rust", "Go"}}
	require.NoError(t, store.StoreSummary(context.Background(), sum))
	require.NotEmpty(t, sum.ID)

	req := fake.last(t)
	assert.Equal(t, "/rest/v1/activity_summaries", req.Path)
	assert.Equal(t, "id", req.Query.Get("on_conflict"))
	assert.Contains(t, req.Prefer, "merge-duplicates")

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &row))
	assert.Equal(t, "rust go", row["tags_text"])
	assert.Equal(t, []interface{}{}, row["events"])
}

func TestPostgrest_SummariesInTimeframe(t *testing.T) {
	fake := &fakePostgrest{body: `[
		{"id":"s1","start_time":"2026-03-02T10:00:00Z","end_time":"2026-03-02T11:00:00Z",
		 "description":"coding","tags":["rust"],"tags_text":"rust","events":[]}
	]`}
	store := newTestPostgrest(t, fake)

	got, err := store.SummariesInTimeframe(context.Background(), at(10, 0), at(11, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, []string{"rust"}, got[0].Tags)
	assert.Nil(t, got[0].Events)

	req := fake.last(t)
	or := req.Query.Get("or")
	assert.Contains(t, or, "and(start_time.gte.2026-03-02T10:00:00Z,start_time.lte.2026-03-02T11:00:00Z)")
	assert.Contains(t, or, "and(start_time.lte.2026-03-02T10:00:00Z,end_time.gte.2026-03-02T11:00:00Z)")
	assert.Contains(t, req.Query.Get("order"), "start_time.desc")
}

func TestPostgrest_SearchSummaries(t *testing.T) {
	fake := &fakePostgrest{}
	store := newTestPostgrest(t, fake)

	_, err := store.SearchSummaries(context.Background(), `Rust "code"`)
	require.NoError(t, err)

	or := fake.last(t).Query.Get("or")
	assert.Contains(t, or, `description.ilike."*rust*"`)
	assert.Contains(t, or, `tags_text.ilike."*code*"`)

	_, err = store.SearchSummaries(context.Background(), "")
	require.NoError(t, err)
	req := fake.last(t)
	assert.Empty(t, req.Query.Get("or"))
	assert.Equal(t, "10", req.Query.Get("limit"))
}

func TestPostgrest_ErrorStatusSurfaces(t *testing.T) {
	fake := &fakePostgrest{status: http.StatusBadRequest, body: `{"code":"42P01","message":"relation does not exist"}`}
	store := newTestPostgrest(t, fake)

	_, err := store.SummariesInTimeframe(context.Background(), at(10, 0), at(11, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
}

func TestNewPostgrestStore_RequiresURLAndKey(t *testing.T) {
	_, err := NewPostgrestStore("", "")
	assert.Error(t, err)
}
