package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2y/toolwrap/internal/domain"
)

func TestParseToolName(t *testing.T) {
	tests := []struct {
		raw        string
		wantMethod string
		wantClean  string
		wantServer string
	}{
		{raw: "mcp_exa_web_search_exa", wantMethod: "web_search_exa", wantClean: "web_search_exa", wantServer: "exa"},
		{raw: "custom_browser_take_screenshot", wantMethod: "take_screenshot", wantClean: "take_screenshot", wantServer: "browser"},
		{raw: "mcp_fetch_get-page", wantMethod: "get_page", wantClean: "get-page", wantServer: "fetch"},
		{raw: "custom_fs_read-file_v2", wantMethod: "read_file_v2", wantClean: "read-file_v2", wantServer: "fs"},
		{raw: "custom_only", wantMethod: "custom_only", wantClean: "custom_only", wantServer: "unknown"},
		{raw: "mcp_exa", wantMethod: "mcp_exa", wantClean: "mcp_exa", wantServer: "exa"},
		{raw: "standalone", wantMethod: "standalone", wantClean: "standalone", wantServer: "unknown"},
		{raw: "", wantMethod: "", wantClean: "", wantServer: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			method, clean, server := domain.ParseToolName(tt.raw)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantClean, clean)
			assert.Equal(t, tt.wantServer, server)
		})
	}
}

func TestToolNameBuilders(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantServer string
		wantClean  string
	}{
		{name: "standard", raw: domain.StandardToolName("exa", "web_search_exa"), wantServer: "exa", wantClean: "web_search_exa"},
		{name: "scoped standard", raw: domain.StandardToolName("@smithery-ai/github", "create_issue"), wantServer: "smithery-ai-github", wantClean: "create_issue"},
		{name: "custom lowercased", raw: domain.CustomToolName("Playwright Browser", "take_screenshot"), wantServer: "playwright-browser", wantClean: "take_screenshot"},
		{name: "custom underscores in server", raw: domain.CustomToolName("my_server", "go"), wantServer: "my-server", wantClean: "go"},
		{name: "empty server", raw: domain.CustomToolName("  ", "tool"), wantServer: "unknown", wantClean: "tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, clean, server := domain.ParseToolName(tt.raw)
			assert.Equal(t, tt.wantServer, server)
			assert.Equal(t, tt.wantClean, clean)
		})
	}
}

func TestMethodNameRoundTrip(t *testing.T) {
	assert.Equal(t, "get_page", domain.MethodName("get-page"))
	assert.Equal(t, "get-page", domain.HyphenatedName("get_page"))
	assert.Equal(t, "get_page", domain.MethodName(domain.HyphenatedName("get_page")))
}
