package mcpclient_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/i2y/toolwrap/internal/adapter/outbound/mcpclient"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

type fakeSession struct {
	tools  []mcpclient.RemoteTool
	mu     sync.Mutex
	calls  []string
	closed bool
}

func (s *fakeSession) ListTools(ctx context.Context) ([]mcpclient.RemoteTool, error) {
	return s.tools, nil
}

func (s *fakeSession) CallTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if name == "fail" {
		return nil, errors.New("boom")
	}
	return fmt.Sprintf("%s:%v", name, args["q"]), nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeDialer serves sessions by endpoint server name. Servers listed in hang
// block until the context ends; servers in refuse fail immediately.
type fakeDialer struct {
	mu        sync.Mutex
	sessions  map[string]*fakeSession
	hang      map[string]bool
	refuse    map[string]bool
	endpoints []mcpclient.Endpoint
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint mcpclient.Endpoint) (mcpclient.Session, error) {
	d.mu.Lock()
	d.endpoints = append(d.endpoints, endpoint)
	d.mu.Unlock()

	if d.hang[endpoint.Server] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("hang fixture expired")
		}
	}
	if d.refuse[endpoint.Server] {
		return nil, errors.New("connection refused")
	}
	session, ok := d.sessions[endpoint.Server]
	if !ok {
		return nil, fmt.Errorf("no such server %s", endpoint.Server)
	}
	return session, nil
}

func (d *fakeDialer) Endpoints() []mcpclient.Endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]mcpclient.Endpoint(nil), d.endpoints...)
}
