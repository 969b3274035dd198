package dependency_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/toolwrap/configs"
	"github.com/i2y/toolwrap/internal/adapter/outbound/mcpclient"
	"github.com/i2y/toolwrap/internal/dependency"
	"github.com/i2y/toolwrap/internal/domain"
)

type staticSession struct{}

func (staticSession) ListTools(ctx context.Context) ([]mcpclient.RemoteTool, error) {
	return []mcpclient.RemoteTool{{
		Name:        "web_search_exa",
		Description: "Search the web",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			"required":   []interface{}{"query"},
		},
	}}, nil
}

func (staticSession) CallTool(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	return "results for " + args["query"].(string), nil
}

func (staticSession) Close() error { return nil }

func TestNew(t *testing.T) {
	cfg := &configs.Config{
		Servers:           []domain.ServerConfig{{QualifiedName: "exa"}},
		DiscoveryTimeout:  time.Second,
		ErrorMessageLimit: 200,
		ValidateArguments: true,
	}
	dial := func(ctx context.Context, endpoint mcpclient.Endpoint) (mcpclient.Session, error) {
		if endpoint.Server != "exa" {
			return nil, errors.New("unexpected server")
		}
		return staticSession{}, nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := dependency.New(cfg, logger, "test", dependency.Options{Dial: dial})
	require.NoError(t, err)
	require.NotNil(t, c.Wrapper())
	require.NotNil(t, c.DiscoverCustomServer())
	require.NotNil(t, c.Registrar())

	ctx := context.Background()
	result, err := c.Wrapper().Invoke(ctx, "web_search_exa", map[string]interface{}{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, domain.SuccessResult("results for go"), result)

	// Argument validation is wired in.
	result, err = c.Wrapper().Invoke(ctx, "web_search_exa", map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Output, "invalid arguments")

	mux := http.NewServeMux()
	c.HTTPHandlers().RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)

	c.Wrapper().Cleanup(ctx)
}
