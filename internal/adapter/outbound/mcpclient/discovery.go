package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i2y/toolwrap/internal/domain"
)

// DefaultDiscoveryTimeout bounds one connect+list attempt against a remote server.
const DefaultDiscoveryTimeout = 15 * time.Second

// route binds a raw tool name to the session and original tool name serving it.
type route struct {
	server     string
	toolName   string
	descriptor domain.ToolDescriptor
}

// connectAndList dials endpoint and lists its tools within timeout. On success
// the caller owns the returned session.
func connectAndList(ctx context.Context, dial Dialer, endpoint Endpoint, timeout time.Duration) (Session, []RemoteTool, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := dial(attemptCtx, endpoint)
	if err != nil {
		return nil, nil, classify(attemptCtx, endpoint.Server, timeout, err)
	}
	tools, err := session.ListTools(attemptCtx)
	if err != nil {
		_ = session.Close()
		return nil, nil, classify(attemptCtx, endpoint.Server, timeout, err)
	}
	return session, tools, nil
}

// classify turns a transport failure into a *domain.ConnectionError, wrapping
// domain.ErrDiscoveryTimeout when the deadline was the cause.
func classify(ctx context.Context, server string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.ConnectionError{Server: server, Err: fmt.Errorf("%w after %s", domain.ErrDiscoveryTimeout, timeout)}
	}
	return &domain.ConnectionError{Server: server, Err: err}
}

func filterTools(cfg domain.ServerConfig, tools []RemoteTool) []RemoteTool {
	out := make([]RemoteTool, 0, len(tools))
	for _, tool := range tools {
		if tool.Name == "" || !cfg.ToolEnabled(tool.Name) {
			continue
		}
		out = append(out, tool)
	}
	return out
}
