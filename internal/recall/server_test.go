package recall

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/query"
)

type fakeResolver struct {
	mu       sync.Mutex
	resolved []string
	searched []string
	result   query.Result
	block    chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, q string) query.Result {
	f.mu.Lock()
	f.resolved = append(f.resolved, q)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	r := f.result
	r.Query = q
	return r
}

func (f *fakeResolver) Search(ctx context.Context, term string) query.Result {
	f.mu.Lock()
	f.searched = append(f.searched, term)
	f.mu.Unlock()
	r := f.result
	r.Query = term
	return r
}

func (f *fakeResolver) calls() (resolved, searched []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resolved...), append([]string(nil), f.searched...)
}

func (f *fakeResolver) Now() time.Time {
	return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
}

func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func TestServer_Resolve(t *testing.T) {
	r := &fakeResolver{result: query.SummariesResult([]activity.Summary{{
		StartTime:   local(9, 0),
		EndTime:     local(9, 30),
		Description: "Planning sprint",
	}}, query.Timeframe{Description: "today"}, "", "")}
	addr := startServer(t, &Server{Resolver: r})

	resp, err := Ask(context.Background(), addr, "  what did I do today?\n")
	require.NoError(t, err)
	assert.Equal(t, "Fishy says:\n• 09:00 to 09:30: Planning sprint\n", resp)
	resolved, _ := r.calls()
	assert.Equal(t, []string{"what did I do today?"}, resolved)
}

func TestServer_FuzzyRouting(t *testing.T) {
	r := &fakeResolver{result: query.EmptyResult(query.Timeframe{Description: "the last 24 hours"}, "", "")}
	addr := startServer(t, &Server{Resolver: r})

	resp, err := Ask(context.Background(), addr, "Fuzzy:vim config")
	require.NoError(t, err)
	assert.Equal(t, "Fishy says: I don't remember anything matching that query (the last 24 hours).", resp)
	resolved, searched := r.calls()
	assert.Equal(t, []string{"vim config"}, searched)
	assert.Empty(t, resolved)
}

func TestServer_TimeoutYieldsEmpty(t *testing.T) {
	r := &fakeResolver{block: make(chan struct{})}
	defer close(r.block)
	addr := startServer(t, &Server{Resolver: r, Timeout: 100 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := Ask(ctx, addr, "what did I do yesterday")
	require.NoError(t, err)
	assert.Equal(t, "Fishy says: I don't remember anything matching that query (yesterday).", resp)
}

func TestServer_ClientWithoutHalfClose(t *testing.T) {
	r := &fakeResolver{result: query.EmptyResult(query.Timeframe{Description: "today"}, "", "")}
	addr := startServer(t, &Server{Resolver: r, Timeout: 200 * time.Millisecond})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("today"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(buf[:n]), "Fishy says:"))
}

func TestServer_ConcurrentConnections(t *testing.T) {
	r := &fakeResolver{result: query.EmptyResult(query.Timeframe{Description: "today"}, "", "")}
	addr := startServer(t, &Server{Resolver: r})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := Ask(context.Background(), addr, "today")
			assert.NoError(t, err)
			assert.Contains(t, resp, "(today)")
		}()
	}
	wg.Wait()
	resolved, _ := r.calls()
	assert.Len(t, resolved, 8)
}

func TestServer_MaxRequestSize(t *testing.T) {
	r := &fakeResolver{result: query.EmptyResult(query.Timeframe{Description: "today"}, "", "")}
	addr := startServer(t, &Server{Resolver: r, MaxRequestSize: 4, Timeout: time.Second})

	// The unread tail may reset the connection, so only the request matters.
	_, _ = Ask(context.Background(), addr, "todayyyyy")
	resolved, _ := r.calls()
	require.Len(t, resolved, 1)
	assert.Equal(t, "toda", resolved[0])
}

func TestAsk_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Ask(context.Background(), addr, "today")
	assert.ErrorContains(t, err, "connect to")
}
