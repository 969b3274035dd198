package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when a name resolves to no discovered tool.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDiscoveryTimeout marks a discovery attempt that exceeded its deadline.
	ErrDiscoveryTimeout = errors.New("discovery timed out")
	// ErrInvalidConfig marks configuration errors; every *ConfigError matches it.
	ErrInvalidConfig = errors.New("invalid server configuration")
)

// ConfigError reports a missing or malformed field in a server configuration.
type ConfigError struct {
	Server string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Server == "" {
		return fmt.Sprintf("invalid server configuration: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid server configuration for %q: %s %s", e.Server, e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConnectionError reports that a server could not be reached or rejected the session.
// Timeouts wrap ErrDiscoveryTimeout so callers can tell a slow server from a refusing one.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to MCP server %q failed: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ToolNotFoundError is the typed resolution failure of the wrapper facade,
// carrying the wrapper name and the requested name.
type ToolNotFoundError struct {
	Wrapper string
	Name    string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("'%s' object has no tool '%s'", e.Wrapper, e.Name)
}

func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}
