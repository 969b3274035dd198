package memrepo_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/toolwrap/internal/adapter/outbound/memrepo"
	"github.com/i2y/toolwrap/internal/domain"
	"github.com/i2y/toolwrap/internal/usecase"
)

func newTestRepo(t *testing.T) *memrepo.InMemoryToolRepository {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return memrepo.NewInMemoryToolRepository(logger)
}

func tool(rawName string) (usecase.SynthesizedTool, domain.SchemaEntry) {
	methodName, cleanName, serverName := domain.ParseToolName(rawName)
	schema := domain.NewFunctionSchema(methodName, rawName, domain.EmptyObjectSchema())
	return usecase.SynthesizedTool{
		MethodName: methodName,
		Descriptor: domain.ToolDescriptor{RawName: rawName, CleanName: cleanName, ServerName: serverName},
		Schema:     schema,
		Invoke: func(ctx context.Context, args map[string]interface{}) domain.ToolResult {
			return domain.SuccessResult(rawName)
		},
	}, domain.SchemaEntry{MethodName: methodName, Schema: schema}
}

func TestInMemoryToolRepository_RegisterAndList(t *testing.T) {
	tests := []struct {
		name        string
		rawNames    []string
		wantRaw     []string
		wantMethods []string
	}{
		{
			name:        "single tool",
			rawNames:    []string{"mcp_exa_web_search_exa"},
			wantRaw:     []string{"mcp_exa_web_search_exa"},
			wantMethods: []string{"web_search_exa"},
		},
		{
			name:        "sorted by raw name and method name",
			rawNames:    []string{"mcp_b_zeta", "custom_a_alpha"},
			wantRaw:     []string{"custom_a_alpha", "mcp_b_zeta"},
			wantMethods: []string{"alpha", "zeta"},
		},
		{
			name:        "method collision keeps both raw entries, one schema",
			rawNames:    []string{"mcp_a_search", "mcp_b_search"},
			wantRaw:     []string{"mcp_a_search", "mcp_b_search"},
			wantMethods: []string{"search"},
		},
		{
			name:        "empty raw name skipped",
			rawNames:    []string{""},
			wantRaw:     []string{},
			wantMethods: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			for _, raw := range tt.rawNames {
				synthesized, entry := tool(raw)
				if raw == "" {
					synthesized.Descriptor.RawName = ""
				}
				repo.Register(synthesized, entry)
			}

			gotRaw := []string{}
			for _, synthesized := range repo.List() {
				gotRaw = append(gotRaw, synthesized.Descriptor.RawName)
			}
			assert.Equal(t, tt.wantRaw, gotRaw)

			gotMethods := []string{}
			for _, entry := range repo.Schemas() {
				gotMethods = append(gotMethods, entry.MethodName)
			}
			assert.Equal(t, tt.wantMethods, gotMethods)
		})
	}
}

func TestInMemoryToolRepository_LastWriteWins(t *testing.T) {
	repo := newTestRepo(t)
	first, firstEntry := tool("mcp_a_search")
	second, secondEntry := tool("mcp_b_search")
	repo.Register(first, firstEntry)
	repo.Register(second, secondEntry)

	found, ok := repo.FindByMethodName("search")
	require.True(t, ok)
	assert.Equal(t, "mcp_b_search", found.Descriptor.RawName)

	_, ok = repo.FindByRawName("mcp_a_search")
	assert.True(t, ok, "raw-name table keeps the earlier tool")
}

func TestInMemoryToolRepository_FindByMethodName(t *testing.T) {
	repo := newTestRepo(t)
	for _, raw := range []string{"mcp_exa_web-search", "custom_browser_take_screenshot"} {
		synthesized, entry := tool(raw)
		repo.Register(synthesized, entry)
	}

	tests := []struct {
		name    string
		lookup  string
		wantRaw string
		wantOK  bool
	}{
		{name: "exact method name", lookup: "web_search", wantRaw: "mcp_exa_web-search", wantOK: true},
		{name: "hyphenated lookup", lookup: "web-search", wantRaw: "mcp_exa_web-search", wantOK: true},
		{name: "custom tool", lookup: "take_screenshot", wantRaw: "custom_browser_take_screenshot", wantOK: true},
		{name: "unknown", lookup: "nope", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, ok := repo.FindByMethodName(tt.lookup)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRaw, found.Descriptor.RawName)
			}
		})
	}
}

func TestInMemoryToolRepository_Reset(t *testing.T) {
	repo := newTestRepo(t)
	synthesized, entry := tool("mcp_exa_search")
	repo.Register(synthesized, entry)

	repo.Reset()

	assert.Empty(t, repo.List())
	assert.Empty(t, repo.Schemas())
	_, ok := repo.FindByRawName("mcp_exa_search")
	assert.False(t, ok)
}

func TestInMemoryToolRepository_FindByMethodName_StableFallback(t *testing.T) {
	repo := newTestRepo(t)
	// Every tool has clean name "get-page" but are filed under other method
	// names, so lookups fall through to the raw-name scan.
	for _, raw := range []string{"mcp_zeta_get-page", "mcp_beta_get-page", "mcp_alpha_get-page"} {
		synthesized, entry := tool(raw)
		entry.MethodName = "alias_" + synthesized.Descriptor.ServerName
		repo.Register(synthesized, entry)
	}

	for i := 0; i < 20; i++ {
		found, ok := repo.FindByMethodName("get_page")
		require.True(t, ok)
		assert.Equal(t, "mcp_alpha_get-page", found.Descriptor.RawName)
	}
}
