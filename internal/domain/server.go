package domain

import (
	"fmt"
	"strings"
)

// CustomType selects the transport used to reach a custom MCP source.
type CustomType string

const (
	CustomTypeSSE   CustomType = "sse"   // HTTP + server-sent events
	CustomTypeHTTP  CustomType = "http"  // streamable HTTP
	CustomTypeStdio CustomType = "stdio" // local process speaking MCP over stdin/stdout
	CustomTypeJSON  CustomType = "json"  // legacy alias of stdio
)

// Normalize folds aliases and case into one of the canonical transports.
func (t CustomType) Normalize() CustomType {
	switch CustomType(strings.ToLower(strings.TrimSpace(string(t)))) {
	case CustomTypeSSE:
		return CustomTypeSSE
	case CustomTypeHTTP, "streamable-http", "streamable_http":
		return CustomTypeHTTP
	case CustomTypeStdio, CustomTypeJSON:
		return CustomTypeStdio
	default:
		return t
	}
}

// ServerConfig describes one MCP server the wrapper should load tools from.
// Entries with IsCustom=false are standard servers addressed by QualifiedName;
// custom entries use CustomType and the connection fields inside Config.
type ServerConfig struct {
	// QualifiedName identifies a standard server in the registry (e.g. "exa", "@smithery-ai/github").
	QualifiedName string `yaml:"qualifiedName" json:"qualifiedName"`

	// Name is the display name. For custom sources it is the server segment of raw tool names.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	IsCustom   bool       `yaml:"isCustom,omitempty" json:"isCustom,omitempty"`
	CustomType CustomType `yaml:"customType,omitempty" json:"customType,omitempty"`

	// Config holds transport settings (url, headers, command, args, env) for custom
	// sources, and free-form server settings forwarded to standard servers.
	Config map[string]interface{} `yaml:"config,omitempty" json:"config,omitempty"`

	// EnabledTools restricts which tools become descriptors. Empty means all.
	EnabledTools []string `yaml:"enabledTools,omitempty" json:"enabledTools,omitempty"`
}

// DisplayName returns Name, falling back to QualifiedName.
func (c ServerConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.QualifiedName
}

// ToolEnabled reports whether the tool passes the EnabledTools filter.
func (c ServerConfig) ToolEnabled(tool string) bool {
	if len(c.EnabledTools) == 0 {
		return true
	}
	for _, name := range c.EnabledTools {
		if name == tool {
			return true
		}
	}
	return false
}

// URL returns config.url.
func (c ServerConfig) URL() string {
	return c.stringValue("url")
}

// Command returns config.command.
func (c ServerConfig) Command() string {
	return c.stringValue("command")
}

// Args returns config.args as strings.
func (c ServerConfig) Args() []string {
	return stringSlice(c.Config["args"])
}

// Headers returns config.headers as a string map.
func (c ServerConfig) Headers() map[string]string {
	return stringMap(c.Config["headers"])
}

// Env returns config.env formatted as KEY=VALUE pairs.
func (c ServerConfig) Env() []string {
	m := stringMap(c.Config["env"])
	env := make([]string, 0, len(m))
	for k, v := range m {
		env = append(env, k+"="+v)
	}
	return env
}

// Validate checks the fields required to connect. It returns a *ConfigError.
func (c ServerConfig) Validate() error {
	if !c.IsCustom {
		if strings.TrimSpace(c.QualifiedName) == "" {
			return &ConfigError{Server: c.DisplayName(), Field: "qualifiedName", Reason: "required for standard servers"}
		}
		return nil
	}
	if strings.TrimSpace(c.DisplayName()) == "" {
		return &ConfigError{Field: "name", Reason: "required for custom servers"}
	}
	switch c.CustomType.Normalize() {
	case CustomTypeSSE, CustomTypeHTTP:
		if c.URL() == "" {
			return &ConfigError{Server: c.DisplayName(), Field: "config.url", Reason: fmt.Sprintf("required for %s servers", c.CustomType)}
		}
	case CustomTypeStdio:
		if c.Command() == "" {
			return &ConfigError{Server: c.DisplayName(), Field: "config.command", Reason: "required for stdio servers"}
		}
	case "":
		return &ConfigError{Server: c.DisplayName(), Field: "customType", Reason: "required for custom servers"}
	default:
		return &ConfigError{Server: c.DisplayName(), Field: "customType", Reason: fmt.Sprintf("unsupported custom type %q", c.CustomType)}
	}
	return nil
}

func (c ServerConfig) stringValue(key string) string {
	if v, ok := c.Config[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringSlice(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if items == "" {
			return nil
		}
		return strings.Fields(items)
	default:
		return nil
	}
}

func stringMap(v interface{}) map[string]string {
	out := make(map[string]string)
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]interface{}:
		for k, val := range m {
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// ServerSegment is the server part of the raw names this config's tools get.
func (c ServerConfig) ServerSegment() string {
	if c.IsCustom {
		return strings.ToLower(SanitizeServerSegment(c.DisplayName()))
	}
	return SanitizeServerSegment(c.QualifiedName)
}

// ValidateServers validates every config and rejects custom servers whose
// names map to the same raw-name segment. Their tools would share a
// namespace and be routed to whichever session registered last.
func ValidateServers(configs []ServerConfig) error {
	seen := make(map[string]string)
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if !cfg.IsCustom {
			continue
		}
		segment := cfg.ServerSegment()
		if previous, ok := seen[segment]; ok {
			return &ConfigError{
				Server: cfg.DisplayName(),
				Field:  "name",
				Reason: fmt.Sprintf("collides with custom server %q (both use segment %q)", previous, segment),
			}
		}
		seen[segment] = cfg.DisplayName()
	}
	return nil
}
