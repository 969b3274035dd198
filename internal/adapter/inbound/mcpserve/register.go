// Package mcpserve re-exposes the wrapped tools on an mcp-go server so any MCP
// client can use the aggregate set.
package mcpserve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/i2y/toolwrap/internal/domain"
)

// ToolServer is the part of an MCP server tools are registered on.
type ToolServer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// ToolService is the part of the wrapper facade the MCP surface needs.
type ToolService interface {
	FunctionSchemas(ctx context.Context) ([]domain.FunctionSchema, error)
	Invoke(ctx context.Context, name string, args map[string]interface{}) (domain.ToolResult, error)
}

// Registrar publishes function schemas as MCP tools.
type Registrar struct {
	tools  ToolService
	logger *slog.Logger
}

// NewRegistrar creates a Registrar.
func NewRegistrar(tools ToolService, logger *slog.Logger) *Registrar {
	return &Registrar{
		tools:  tools,
		logger: logger.With("component", "mcp_registrar"),
	}
}

// Register adds one MCP tool per function schema, call_mcp_tool included.
// It triggers discovery if it has not run yet and returns the number of tools added.
func (r *Registrar) Register(ctx context.Context, srv ToolServer) (int, error) {
	schemas, err := r.tools.FunctionSchemas(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load tool schemas: %w", err)
	}
	added := 0
	for _, schema := range schemas {
		tool, err := toMCPTool(schema)
		if err != nil {
			r.logger.Warn("Skipping tool with unencodable schema",
				slog.String("method_name", schema.Function.Name), slog.Any("error", err))
			continue
		}
		srv.AddTool(tool, r.handler(schema.Function.Name))
		added++
	}
	r.logger.Info("Registered tools on MCP server", slog.Int("tool_count", added))
	return added, nil
}

func (r *Registrar) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := r.tools.Invoke(ctx, name, request.GetArguments())
		if err != nil {
			r.logger.Warn("MCP tool call failed", slog.String("method_name", name), slog.Any("error", err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !result.Success {
			return mcp.NewToolResultError(result.Output), nil
		}
		return mcp.NewToolResultText(result.Output), nil
	}
}

func toMCPTool(schema domain.FunctionSchema) (mcp.Tool, error) {
	parameters := schema.Function.Parameters
	if len(parameters) == 0 {
		parameters = domain.EmptyObjectSchema()
	}
	raw, err := json.Marshal(parameters)
	if err != nil {
		return mcp.Tool{}, err
	}
	return mcp.NewToolWithRawSchema(schema.Function.Name, schema.Function.Description, raw), nil
}
