// Package recall serves natural-language activity questions over TCP. A
// connection carries one request, read until the client half-closes, and
// one response, after which the server closes it.
package recall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/query"
)

// FuzzyPrefix routes a request straight to content search.
const FuzzyPrefix = "Fuzzy:"

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRequestSize = 64 * 1024

	writeTimeout = 5 * time.Second
)

// Resolver answers queries. *query.Engine implements it.
type Resolver interface {
	Resolve(ctx context.Context, q string) query.Result
	Search(ctx context.Context, term string) query.Result
	Now() time.Time
}

// Server answers one query per connection.
type Server struct {
	Resolver       Resolver
	Formatter      *Formatter
	Timeout        time.Duration
	MaxRequestSize int
	Logger         logrus.FieldLogger
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes ln and
// waits for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logging.OrDiscard(s.Logger)
	log.WithField("addr", ln.Addr().String()).Info("recall service listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.WithError(err).Warn("accept timed out")
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn, log)
		}()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn, log logrus.FieldLogger) {
	defer conn.Close()
	log = log.WithField("remote", conn.RemoteAddr().String())

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := s.MaxRequestSize
	if limit <= 0 {
		limit = DefaultMaxRequestSize
	}

	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	req, err := readRequest(conn, limit)
	if err != nil {
		log.WithError(err).Warn("reading request failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp := s.answer(ctx, req, log)

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := io.WriteString(conn, resp); err != nil {
		log.WithError(err).Warn("writing response failed")
	}
}

// readRequest reads until EOF or limit bytes. A deadline that expires
// after some data arrived ends the request instead of failing it, so
// clients that never half-close still get an answer.
func readRequest(conn net.Conn, limit int) (string, error) {
	data, err := io.ReadAll(io.LimitReader(conn, int64(limit)))
	if err != nil && !(errors.Is(err, os.ErrDeadlineExceeded) && len(data) > 0) {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// answer resolves req, falling back to the empty response if ctx expires
// first.
func (s *Server) answer(ctx context.Context, req string, log logrus.FieldLogger) string {
	f := s.Formatter
	if f == nil {
		f = NewFormatter(nil)
	}

	done := make(chan query.Result, 1)
	go func() {
		if strings.HasPrefix(req, FuzzyPrefix) {
			done <- s.Resolver.Search(ctx, strings.TrimPrefix(req, FuzzyPrefix))
			return
		}
		done <- s.Resolver.Resolve(ctx, req)
	}()

	select {
	case res := <-done:
		log.WithFields(logrus.Fields{
			"query": req,
			"kind":  res.Kind,
			"tier":  res.Tier,
		}).Info("answered query")
		return f.Format(res)
	case <-ctx.Done():
		log.WithField("query", req).Warn("query timed out")
		return FormatEmpty(query.ParseTimeframe(req, s.Resolver.Now()))
	}
}

// Ask sends q to the recall service at addr and returns its response.
func Ask(ctx context.Context, addr, q string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := io.WriteString(conn, q); err != nil {
		return "", fmt.Errorf("send query: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return "", fmt.Errorf("send query: %w", err)
		}
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(resp), nil
}
