package usecase

import (
	"context"

	"github.com/i2y/toolwrap/internal/domain"
)

// --- Connection/Discovery Layer ---

// StandardManager owns the sessions to standard (qualified-name) MCP servers.
type StandardManager interface {
	// ConnectAll establishes one session per config. Per-server connection
	// failures are logged and skipped; only configuration errors are returned.
	ConnectAll(ctx context.Context, configs []domain.ServerConfig) error

	// Tools returns the descriptors of every tool on every connected server.
	Tools() []domain.ToolDescriptor

	// CallTool invokes a tool by raw name. Unknown names are reported as errors.
	CallTool(ctx context.Context, rawName string, args map[string]interface{}) (interface{}, error)

	// DisconnectAll closes every session. It is the only place sessions are closed.
	DisconnectAll(ctx context.Context) error
}

// CustomHandler discovers and invokes tools on user-supplied MCP sources.
type CustomHandler interface {
	// DiscoverAll connects to every custom config and returns the discovered tools
	// keyed by raw name. Unreachable sources are logged and skipped.
	DiscoverAll(ctx context.Context, configs []domain.ServerConfig) (map[string]domain.ToolDescriptor, error)

	// Discover lists the tools of a single source without keeping the session.
	// Failures are surfaced: ErrDiscoveryTimeout, *domain.ConnectionError or *domain.ConfigError.
	Discover(ctx context.Context, config domain.ServerConfig) ([]domain.ToolDescriptor, error)

	// CallTool invokes a tool previously returned by DiscoverAll.
	CallTool(ctx context.Context, rawName string, args map[string]interface{}) (interface{}, error)

	// Close releases every session opened by DiscoverAll.
	Close(ctx context.Context) error
}

// --- Tool tables ---

// ToolRepository stores synthesized tools keyed by raw name and their function
// schemas keyed by method name. Registration is last-write-wins on both keys.
type ToolRepository interface {
	Register(tool SynthesizedTool, entry domain.SchemaEntry)

	// FindByRawName returns the tool registered under the raw name.
	FindByRawName(rawName string) (SynthesizedTool, bool)

	// FindByMethodName tries the exact method name first, then its hyphenated form.
	FindByMethodName(name string) (SynthesizedTool, bool)

	// List returns every tool in the raw-name table.
	List() []SynthesizedTool

	// Schemas returns the schema table sorted by method name.
	Schemas() []domain.SchemaEntry

	// Reset drops both tables.
	Reset()
}

// --- Optional collaborators ---

// ArgumentValidator checks invocation arguments before they reach a transport.
type ArgumentValidator interface {
	Validate(ctx context.Context, rawName string, args map[string]interface{}) error
}
