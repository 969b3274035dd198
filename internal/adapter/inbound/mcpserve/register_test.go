package mcpserve_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i2y/toolwrap/internal/adapter/inbound/mcpserve"
	"github.com/i2y/toolwrap/internal/adapter/outbound/mcpclient"
	"github.com/i2y/toolwrap/internal/domain"
	"github.com/i2y/toolwrap/internal/usecase"
)

type MockToolService struct {
	mock.Mock
}

func (m *MockToolService) FunctionSchemas(ctx context.Context) ([]domain.FunctionSchema, error) {
	args := m.Called(ctx)
	if schemas := args.Get(0); schemas != nil {
		return schemas.([]domain.FunctionSchema), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockToolService) Invoke(ctx context.Context, name string, params map[string]interface{}) (domain.ToolResult, error) {
	args := m.Called(ctx, name, params)
	return args.Get(0).(domain.ToolResult), args.Error(1)
}

func TestRegistrar_RoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	service := new(MockToolService)
	service.On("FunctionSchemas", mock.Anything).Return([]domain.FunctionSchema{
		usecase.CallMCPToolSchema(),
		domain.NewFunctionSchema("web_search_exa", "Search (MCP Server: exa)", map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			"required":   []interface{}{"query"},
		}),
		domain.NewFunctionSchema("take_screenshot", "Capture (MCP Server: browser)", nil),
	}, nil).Once()
	service.On("Invoke", mock.Anything, "web_search_exa", map[string]interface{}{"query": "go"}).
		Return(domain.SuccessResult("results"), nil).Once()
	service.On("Invoke", mock.Anything, "take_screenshot", mock.Anything).
		Return(domain.FailResult("Error executing tool custom_browser_take_screenshot: boom"), nil).Once()

	mcpSrv := server.NewMCPServer("toolwrap-test", "0.0.0", server.WithToolCapabilities(true))
	added, err := mcpserve.NewRegistrar(service, logger).Register(context.Background(), mcpSrv)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	testServer := server.NewTestServer(mcpSrv)
	defer testServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := mcpclient.DialMCP(ctx, mcpclient.Endpoint{
		Server:    "aggregate",
		Transport: domain.CustomTypeSSE,
		URL:       testServer.URL + "/sse",
	})
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"call_mcp_tool", "web_search_exa", "take_screenshot"}, names)

	out, err := session.CallTool(ctx, "web_search_exa", map[string]interface{}{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "results", out)

	_, err = session.CallTool(ctx, "take_screenshot", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	service.AssertExpectations(t)
}

func TestRegistrar_SchemaFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	service := new(MockToolService)
	service.On("FunctionSchemas", mock.Anything).Return(nil, errors.New("invalid server configuration")).Once()

	_, err := mcpserve.NewRegistrar(service, logger).Register(context.Background(), server.NewMCPServer("x", "0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server configuration")
}
