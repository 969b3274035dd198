package mcpclient_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/toolwrap/internal/adapter/outbound/mcpclient"
	"github.com/i2y/toolwrap/internal/domain"
)

func TestManager_ConnectAll(t *testing.T) {
	dialer := &fakeDialer{
		sessions: map[string]*fakeSession{
			"exa": {tools: []mcpclient.RemoteTool{
				{Name: "web_search_exa", Description: "Search the web", InputSchema: map[string]interface{}{"type": "object"}},
			}},
			"@smithery-ai/github": {tools: []mcpclient.RemoteTool{{Name: "create_issue"}, {Name: "list_repos"}}},
		},
		refuse: map[string]bool{"down": true},
	}
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{
		RegistryURL: "https://registry.test/{qualifiedName}/mcp",
		APIKey:      "secret",
		Timeout:     time.Second,
		Dial:        dialer.Dial,
	}, logger)

	err := manager.ConnectAll(context.Background(), []domain.ServerConfig{
		{QualifiedName: "exa", Config: map[string]interface{}{"exaApiKey": "k"}},
		{QualifiedName: "down"},
		{QualifiedName: "@smithery-ai/github", EnabledTools: []string{"create_issue"}},
	})
	require.NoError(t, err)

	tools := manager.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "mcp_exa_web_search_exa", tools[0].RawName)
	assert.Equal(t, "web_search_exa", tools[0].CleanName)
	assert.Equal(t, "exa", tools[0].ServerName)
	assert.Equal(t, "Search the web", tools[0].Description)
	assert.Equal(t, "mcp_smithery-ai-github_create_issue", tools[1].RawName)
	assert.Equal(t, "create_issue", tools[1].CleanName)
	assert.Equal(t, "smithery-ai-github", tools[1].ServerName)

	out, err := manager.CallTool(context.Background(), "mcp_exa_web_search_exa", map[string]interface{}{"q": "mcp"})
	require.NoError(t, err)
	assert.Equal(t, "web_search_exa:mcp", out)

	endpoints := dialer.Endpoints()
	require.NotEmpty(t, endpoints)
	first := endpoints[0]
	assert.Equal(t, domain.CustomTypeHTTP, first.Transport)
	u, err := url.Parse(first.URL)
	require.NoError(t, err)
	assert.Equal(t, "registry.test", u.Host)
	assert.Equal(t, "/exa/mcp", u.Path)
	assert.Equal(t, "secret", u.Query().Get("api_key"))

	decoded, err := base64.StdEncoding.DecodeString(u.Query().Get("config"))
	require.NoError(t, err)
	var settings map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded, &settings))
	assert.Equal(t, "k", settings["exaApiKey"])

	require.NoError(t, manager.DisconnectAll(context.Background()))
	assert.Empty(t, manager.Tools())
	assert.True(t, dialer.sessions["exa"].closed)
}

func TestManager_ConnectAll_InvalidConfig(t *testing.T) {
	dialer := &fakeDialer{}
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{Dial: dialer.Dial}, logger)

	err := manager.ConnectAll(context.Background(), []domain.ServerConfig{{Name: "nameless"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	assert.Empty(t, dialer.Endpoints(), "no connection attempted on invalid config")
}

func TestManager_ConnectAll_Timeout(t *testing.T) {
	dialer := &fakeDialer{
		hang:     map[string]bool{"slow": true},
		sessions: map[string]*fakeSession{"fast": {tools: []mcpclient.RemoteTool{{Name: "t"}}}},
	}
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{Dial: dialer.Dial, Timeout: 30 * time.Millisecond}, logger)

	require.NoError(t, manager.ConnectAll(context.Background(), []domain.ServerConfig{
		{QualifiedName: "slow"}, {QualifiedName: "fast"},
	}))
	tools := manager.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "mcp_fast_t", tools[0].RawName)
}

func TestManager_Connect_TimeoutClassified(t *testing.T) {
	dialer := &fakeDialer{hang: map[string]bool{"slow": true}}
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{Dial: dialer.Dial, Timeout: 20 * time.Millisecond}, logger)

	err := manager.Connect(context.Background(), domain.ServerConfig{QualifiedName: "slow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDiscoveryTimeout)
	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "slow", connErr.Server)
}

func TestManager_URLOverride(t *testing.T) {
	dialer := &fakeDialer{sessions: map[string]*fakeSession{"self-hosted": {}}}
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{Dial: dialer.Dial}, logger)

	require.NoError(t, manager.Connect(context.Background(), domain.ServerConfig{
		QualifiedName: "self-hosted",
		Config:        map[string]interface{}{"url": "http://localhost:9000/mcp"},
	}))
	endpoints := dialer.Endpoints()
	require.Len(t, endpoints, 1)
	assert.Equal(t, "http://localhost:9000/mcp", endpoints[0].URL)
}

func TestManager_CallTool_Unknown(t *testing.T) {
	manager := mcpclient.NewManager(mcpclient.ManagerOptions{Dial: (&fakeDialer{}).Dial}, logger)

	_, err := manager.CallTool(context.Background(), "mcp_missing_tool", nil)
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}
