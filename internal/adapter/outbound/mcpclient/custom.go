package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i2y/toolwrap/internal/domain"
)

// CustomHandler implements usecase.CustomHandler over user-supplied sse, http
// and stdio sources.
type CustomHandler struct {
	dial    Dialer
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]Session // display name -> session
	routes   map[string]route
}

// NewCustomHandler creates a custom-source handler. A nil dial uses DialMCP.
func NewCustomHandler(dial Dialer, timeout time.Duration, logger *slog.Logger) *CustomHandler {
	if dial == nil {
		dial = DialMCP
	}
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	return &CustomHandler{
		dial:     dial,
		timeout:  timeout,
		logger:   logger.With("component", "custom_mcp_handler"),
		sessions: make(map[string]Session),
		routes:   make(map[string]route),
	}
}

// EndpointFor maps a custom server config onto a transport endpoint.
func EndpointFor(cfg domain.ServerConfig) Endpoint {
	return Endpoint{
		Server:    cfg.DisplayName(),
		Transport: cfg.CustomType.Normalize(),
		URL:       cfg.URL(),
		Headers:   cfg.Headers(),
		Command:   cfg.Command(),
		Args:      cfg.Args(),
		Env:       cfg.Env(),
	}
}

// DiscoverAll connects to every source concurrently. Sources that fail are
// logged and left out of the result; their error never aborts the others.
func (h *CustomHandler) DiscoverAll(ctx context.Context, configs []domain.ServerConfig) (map[string]domain.ToolDescriptor, error) {
	if err := domain.ValidateServers(configs); err != nil {
		return nil, err
	}

	type discovered struct {
		cfg     domain.ServerConfig
		session Session
		tools   []RemoteTool
	}
	results := make([]*discovered, len(configs))

	var g errgroup.Group
	for i, cfg := range configs {
		g.Go(func() error {
			session, tools, err := connectAndList(ctx, h.dial, EndpointFor(cfg), h.timeout)
			if err != nil {
				h.logger.Error("Failed to discover custom MCP server",
					slog.String("server", cfg.DisplayName()),
					slog.String("type", string(cfg.CustomType)),
					slog.Bool("timeout", errors.Is(err, domain.ErrDiscoveryTimeout)),
					slog.Any("error", err))
				return nil
			}
			results[i] = &discovered{cfg: cfg, session: session, tools: filterTools(cfg, tools)}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]domain.ToolDescriptor)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, res := range results {
		if res == nil {
			continue
		}
		name := res.cfg.DisplayName()
		if old, ok := h.sessions[name]; ok {
			_ = old.Close()
			for rawName, r := range h.routes {
				if r.server == name {
					delete(h.routes, rawName)
				}
			}
		}
		h.sessions[name] = res.session
		for _, desc := range descriptorsFor(res.cfg, res.tools) {
			out[desc.RawName] = desc
			h.routes[desc.RawName] = route{server: name, toolName: desc.CleanName, descriptor: desc}
		}
		h.logger.Info("Discovered custom MCP server",
			slog.String("server", name), slog.Int("tool_count", len(res.tools)))
	}
	return out, nil
}

// Discover lists the tools of one source and closes the session.
func (h *CustomHandler) Discover(ctx context.Context, cfg domain.ServerConfig) ([]domain.ToolDescriptor, error) {
	if !cfg.IsCustom {
		return nil, &domain.ConfigError{Server: cfg.DisplayName(), Field: "isCustom", Reason: "discovery requires a custom server"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	session, tools, err := connectAndList(ctx, h.dial, EndpointFor(cfg), h.timeout)
	if err != nil {
		return nil, err
	}
	if err := session.Close(); err != nil {
		h.logger.Warn("Failed to close discovery session",
			slog.String("server", cfg.DisplayName()), slog.Any("error", err))
	}
	return descriptorsFor(cfg, filterTools(cfg, tools)), nil
}

// CallTool invokes a discovered tool by raw name.
func (h *CustomHandler) CallTool(ctx context.Context, rawName string, args map[string]interface{}) (interface{}, error) {
	h.mu.RLock()
	r, ok := h.routes[rawName]
	var session Session
	if ok {
		session = h.sessions[r.server]
	}
	h.mu.RUnlock()

	if !ok || session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, rawName)
	}
	return session.CallTool(ctx, r.toolName, args)
}

// Close releases every session opened by DiscoverAll.
func (h *CustomHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]Session)
	h.routes = make(map[string]route)
	h.mu.Unlock()

	var errs []error
	for name, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func descriptorsFor(cfg domain.ServerConfig, tools []RemoteTool) []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(tools))
	for _, tool := range tools {
		rawName := domain.CustomToolName(cfg.DisplayName(), tool.Name)
		_, cleanName, serverName := domain.ParseToolName(rawName)
		out = append(out, domain.ToolDescriptor{
			RawName:         rawName,
			CleanName:       cleanName,
			ServerName:      serverName,
			Description:     tool.Description,
			ParameterSchema: tool.InputSchema,
			IsCustom:        true,
		})
	}
	return out
}
