package mcpclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i2y/toolwrap/internal/domain"
)

// DefaultRegistryURL addresses standard servers by qualified name.
const DefaultRegistryURL = "https://server.smithery.ai/{qualifiedName}/mcp"

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// RegistryURL is a URL template; "{qualifiedName}" is replaced by the server's qualified name.
	RegistryURL string
	// APIKey is sent as the api_key query parameter when set.
	APIKey string
	// Timeout bounds one connection attempt.
	Timeout time.Duration
	// Dial opens sessions. Defaults to DialMCP.
	Dial Dialer
}

// Manager implements usecase.StandardManager: it keeps one session per
// qualified name and routes raw tool names to them.
type Manager struct {
	opts     ManagerOptions
	mu       sync.RWMutex
	sessions map[string]Session // qualified name -> session
	routes   map[string]route   // raw tool name -> route
	logger   *slog.Logger
}

// NewManager creates a standard-server connection manager.
func NewManager(opts ManagerOptions, logger *slog.Logger) *Manager {
	if opts.RegistryURL == "" {
		opts.RegistryURL = DefaultRegistryURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDiscoveryTimeout
	}
	if opts.Dial == nil {
		opts.Dial = DialMCP
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]Session),
		routes:   make(map[string]route),
		logger:   logger.With("component", "mcp_manager"),
	}
}

// ConnectAll connects every config in order. A server that cannot be reached is
// logged and skipped; only configuration errors abort.
func (m *Manager) ConnectAll(ctx context.Context, configs []domain.ServerConfig) error {
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	connected := 0
	for _, cfg := range configs {
		if err := m.Connect(ctx, cfg); err != nil {
			m.logger.Error("Failed to connect to MCP server",
				slog.String("server", cfg.QualifiedName), slog.Any("error", err))
			continue
		}
		connected++
	}
	m.logger.Info("Standard MCP servers connected", slog.Int("connected", connected), slog.Int("configured", len(configs)))
	return nil
}

// Connect opens a session to one standard server and records its tools.
func (m *Manager) Connect(ctx context.Context, cfg domain.ServerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := m.logger.With(slog.String("server", cfg.QualifiedName))

	m.mu.RLock()
	_, exists := m.sessions[cfg.QualifiedName]
	m.mu.RUnlock()
	if exists {
		log.Info("MCP server already connected")
		return nil
	}

	endpoint, err := m.endpoint(cfg)
	if err != nil {
		return err
	}
	session, tools, err := connectAndList(ctx, m.opts.Dial, endpoint, m.opts.Timeout)
	if err != nil {
		return err
	}
	tools = filterTools(cfg, tools)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[cfg.QualifiedName] = session
	for _, tool := range tools {
		rawName := domain.StandardToolName(cfg.QualifiedName, tool.Name)
		_, cleanName, serverName := domain.ParseToolName(rawName)
		m.routes[rawName] = route{
			server:   cfg.QualifiedName,
			toolName: tool.Name,
			descriptor: domain.ToolDescriptor{
				RawName:         rawName,
				CleanName:       cleanName,
				ServerName:      serverName,
				Description:     tool.Description,
				ParameterSchema: tool.InputSchema,
			},
		}
	}
	log.Info("Connected to MCP server", slog.Int("tool_count", len(tools)))
	return nil
}

// endpoint resolves the streamable HTTP URL of a standard server. A config.url
// overrides the registry template.
func (m *Manager) endpoint(cfg domain.ServerConfig) (Endpoint, error) {
	raw := cfg.URL()
	if raw == "" {
		raw = strings.ReplaceAll(m.opts.RegistryURL, "{qualifiedName}", cfg.QualifiedName)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, &domain.ConfigError{Server: cfg.QualifiedName, Field: "url", Reason: err.Error()}
	}

	settings := make(map[string]interface{}, len(cfg.Config))
	for k, v := range cfg.Config {
		if k == "url" || k == "headers" {
			continue
		}
		settings[k] = v
	}
	query := u.Query()
	if len(settings) > 0 {
		data, err := json.Marshal(settings)
		if err != nil {
			return Endpoint{}, &domain.ConfigError{Server: cfg.QualifiedName, Field: "config", Reason: err.Error()}
		}
		query.Set("config", base64.StdEncoding.EncodeToString(data))
	}
	if m.opts.APIKey != "" {
		query.Set("api_key", m.opts.APIKey)
	}
	u.RawQuery = query.Encode()

	return Endpoint{
		Server:    cfg.QualifiedName,
		Transport: domain.CustomTypeHTTP,
		URL:       u.String(),
		Headers:   cfg.Headers(),
	}, nil
}

// Tools returns the descriptors of all connected servers, sorted by raw name.
func (m *Manager) Tools() []domain.ToolDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ToolDescriptor, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, r.descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RawName < out[j].RawName })
	return out
}

// CallTool invokes a tool by raw name on the session that listed it.
func (m *Manager) CallTool(ctx context.Context, rawName string, args map[string]interface{}) (interface{}, error) {
	m.mu.RLock()
	r, ok := m.routes[rawName]
	var session Session
	if ok {
		session = m.sessions[r.server]
	}
	m.mu.RUnlock()

	if !ok || session == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, rawName)
	}
	m.logger.Debug("Calling MCP tool", slog.String("server", r.server), slog.String("tool", r.toolName))
	return session.CallTool(ctx, r.toolName, args)
}

// DisconnectAll closes every session and forgets every route.
func (m *Manager) DisconnectAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]Session)
	m.routes = make(map[string]route)
	m.mu.Unlock()

	var errs []error
	for name, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.logger.Info("Disconnected standard MCP servers", slog.Int("count", len(sessions)))
	return errors.Join(errs...)
}
