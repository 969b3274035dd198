package domain

import "strings"

const (
	// StandardToolPrefix starts the raw name of every tool discovered on a standard MCP server.
	StandardToolPrefix = "mcp_"
	// CustomToolPrefix starts the raw name of every tool discovered on a custom MCP source.
	CustomToolPrefix = "custom_"

	// UnknownServer is reported when a raw name carries no server segment.
	UnknownServer = "unknown"
)

// ParseToolName decomposes a raw tool identifier into the method name used for
// lookups, the clean tool name and the originating server name.
//
// Custom names ("custom_{server}_{tool...}") keep every segment after the server,
// so tools may themselves contain underscores. Any other name is split into at
// most three parts ("mcp_{server}_{tool}"). Malformed names never fail: the raw
// name becomes the clean name and the server is reported as "unknown".
func ParseToolName(raw string) (methodName, cleanName, serverName string) {
	if strings.HasPrefix(raw, CustomToolPrefix) {
		parts := strings.Split(raw, "_")
		if len(parts) >= 3 {
			cleanName = strings.Join(parts[2:], "_")
			serverName = parts[1]
		} else {
			cleanName = raw
			serverName = UnknownServer
		}
	} else {
		parts := strings.SplitN(raw, "_", 3)
		cleanName = raw
		if len(parts) > 2 {
			cleanName = parts[2]
		}
		serverName = UnknownServer
		if len(parts) > 1 {
			serverName = parts[1]
		}
	}
	return MethodName(cleanName), cleanName, serverName
}

// MethodName converts a tool name into its identifier-like lookup key.
func MethodName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// HyphenatedName is the inverse convention of MethodName, used by some schema sources.
func HyphenatedName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// StandardToolName builds "mcp_{server}_{tool}".
func StandardToolName(server, tool string) string {
	return StandardToolPrefix + SanitizeServerSegment(server) + "_" + tool
}

// CustomToolName builds "custom_{server}_{tool}". The server segment is lowercased.
func CustomToolName(server, tool string) string {
	return CustomToolPrefix + strings.ToLower(SanitizeServerSegment(server)) + "_" + tool
}

// SanitizeServerSegment replaces every character outside [A-Za-z0-9-] with '-'
// so that ParseToolName can recover the server segment from a raw name.
func SanitizeServerSegment(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return UnknownServer
	}
	var b strings.Builder
	b.Grow(len(server))
	for _, r := range server {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	sanitized := strings.Trim(b.String(), "-")
	if sanitized == "" {
		return UnknownServer
	}
	return sanitized
}
