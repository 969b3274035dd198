package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/i2y/toolwrap/internal/domain"
)

// WrapperName is reported in resolution errors.
const WrapperName = "MCPToolWrapper"

// CallMCPToolName is the name of the statically declared fallback tool.
const CallMCPToolName = "call_mcp_tool"

// MCPToolWrapper is the facade an agent framework talks to. It discovers tools
// lazily, synthesizes one invoker per tool and resolves tools by method name.
type MCPToolWrapper struct {
	configs     []domain.ServerConfig
	standard    StandardManager
	custom      CustomHandler
	repository  ToolRepository
	synthesizer *Synthesizer
	executor    *Executor
	logger      *slog.Logger

	initialized atomic.Bool
	initGroup   singleflight.Group
	mu          sync.RWMutex // guards customTools
	customTools map[string]domain.ToolDescriptor
}

// NewMCPToolWrapper creates the facade. Discovery does not start until the first
// call that needs tools.
func NewMCPToolWrapper(
	configs []domain.ServerConfig,
	standard StandardManager,
	custom CustomHandler,
	repository ToolRepository,
	opts ExecutorOptions,
	logger *slog.Logger,
) *MCPToolWrapper {
	w := &MCPToolWrapper{
		configs:     configs,
		standard:    standard,
		custom:      custom,
		repository:  repository,
		synthesizer: NewSynthesizer(repository, logger),
		logger:      logger.With("usecase", "MCPToolWrapper"),
		customTools: make(map[string]domain.ToolDescriptor),
	}
	w.executor = NewExecutor(standard, custom, w.isCustomTool, opts, logger)
	return w
}

// EnsureInitialized runs discovery and synthesis once. Concurrent first callers
// share the same run; later calls return immediately.
func (w *MCPToolWrapper) EnsureInitialized(ctx context.Context) error {
	if w.initialized.Load() {
		return nil
	}
	// The run is shared by every waiting caller, so it is detached from ctx.
	// Connection attempts stay bounded by the discovery timeout; a caller whose
	// ctx ends only stops waiting.
	initCtx := context.WithoutCancel(ctx)
	ch := w.initGroup.DoChan("init", func() (interface{}, error) {
		if w.initialized.Load() {
			return nil, nil
		}
		if err := w.initialize(initCtx); err != nil {
			return nil, err
		}
		w.initialized.Store(true)
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *MCPToolWrapper) initialize(ctx context.Context) error {
	if err := domain.ValidateServers(w.configs); err != nil {
		w.logger.Error("Invalid server configuration", slog.Any("error", err))
		return err
	}
	var standardConfigs, customConfigs []domain.ServerConfig
	for _, cfg := range w.configs {
		if cfg.IsCustom {
			customConfigs = append(customConfigs, cfg)
		} else {
			standardConfigs = append(standardConfigs, cfg)
		}
	}
	w.logger.Info("Initializing MCP tools",
		slog.Int("standard_servers", len(standardConfigs)),
		slog.Int("custom_servers", len(customConfigs)))

	var customTools map[string]domain.ToolDescriptor
	g, gctx := errgroup.WithContext(ctx)
	if len(standardConfigs) > 0 {
		g.Go(func() error {
			return w.standard.ConnectAll(gctx, standardConfigs)
		})
	}
	if len(customConfigs) > 0 {
		g.Go(func() error {
			tools, err := w.custom.DiscoverAll(gctx, customConfigs)
			customTools = tools
			return err
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.Error("MCP tool discovery failed", slog.Any("error", err))
		return fmt.Errorf("failed to discover MCP tools: %w", err)
	}

	descriptors := make(map[string]domain.ToolDescriptor)
	for _, d := range w.standard.Tools() {
		descriptors[d.RawName] = d
	}
	w.mu.Lock()
	w.customTools = make(map[string]domain.ToolDescriptor, len(customTools))
	for name, d := range customTools {
		d.IsCustom = true
		w.customTools[name] = d
		descriptors[name] = d
	}
	w.mu.Unlock()

	built := w.synthesizer.BuildAll(descriptors, w.executor.Execute)
	w.logger.Info("MCP tools initialized", slog.Int("tool_count", built), slog.Int("custom_tool_count", len(customTools)))
	return nil
}

func (w *MCPToolWrapper) isCustomTool(rawName string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.customTools[rawName]
	return ok
}

// GetAvailableTools returns the descriptors of the standard servers. Custom tools
// are exposed through Schemas only.
func (w *MCPToolWrapper) GetAvailableTools(ctx context.Context) ([]domain.ToolDescriptor, error) {
	if err := w.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return w.standard.Tools(), nil
}

// Schemas returns the schema table of every synthesized tool.
func (w *MCPToolWrapper) Schemas(ctx context.Context) ([]domain.SchemaEntry, error) {
	if err := w.EnsureInitialized(ctx); err != nil {
		return nil, err
	}
	return w.repository.Schemas(), nil
}

// FunctionSchemas returns the fallback schema followed by every synthesized schema,
// ready to be handed to an LLM.
func (w *MCPToolWrapper) FunctionSchemas(ctx context.Context) ([]domain.FunctionSchema, error) {
	entries, err := w.Schemas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FunctionSchema, 0, len(entries)+1)
	out = append(out, CallMCPToolSchema())
	for _, entry := range entries {
		out = append(out, entry.Schema)
	}
	return out, nil
}

// CallMCPTool invokes any discovered tool by raw name. A name that is not a raw
// name but resolves to a synthesized tool is translated to that tool's raw name.
func (w *MCPToolWrapper) CallMCPTool(ctx context.Context, toolName string, args map[string]interface{}) domain.ToolResult {
	if err := w.EnsureInitialized(ctx); err != nil {
		return domain.FailResult(TruncateMessage(fmt.Sprintf("Error initializing MCP tools: %v", err), DefaultErrorMessageLimit))
	}
	if toolName == "" {
		return domain.FailResult("tool_name is required")
	}
	if _, ok := w.repository.FindByRawName(toolName); !ok {
		if tool, err := w.resolve(toolName); err == nil {
			toolName = tool.Descriptor.RawName
		}
	}
	return w.executor.Execute(ctx, toolName, args)
}

// Resolve finds a synthesized tool by method name, falling back to a scan of the
// raw-name table. It fails with *domain.ToolNotFoundError.
func (w *MCPToolWrapper) Resolve(ctx context.Context, name string) (SynthesizedTool, error) {
	if err := w.EnsureInitialized(ctx); err != nil {
		return SynthesizedTool{}, err
	}
	return w.resolve(name)
}

func (w *MCPToolWrapper) resolve(name string) (SynthesizedTool, error) {
	if tool, ok := w.repository.FindByMethodName(name); ok {
		return tool, nil
	}
	hyphenated := domain.HyphenatedName(name)
	for _, tool := range w.repository.List() {
		if tool.MethodName == name || tool.Descriptor.CleanName == hyphenated {
			return tool, nil
		}
	}
	return SynthesizedTool{}, &domain.ToolNotFoundError{Wrapper: WrapperName, Name: name}
}

// Invoke is the generic entry point: it resolves name and runs the tool.
// The fallback name call_mcp_tool is dispatched to CallMCPTool.
func (w *MCPToolWrapper) Invoke(ctx context.Context, name string, args map[string]interface{}) (domain.ToolResult, error) {
	if name == CallMCPToolName {
		toolName, _ := args["tool_name"].(string)
		arguments, _ := args["arguments"].(map[string]interface{})
		return w.CallMCPTool(ctx, toolName, arguments), nil
	}
	tool, err := w.Resolve(ctx, name)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return tool.Invoke(ctx, args), nil
}

// Cleanup disconnects every session and resets the wrapper. Errors are logged,
// never returned, so teardown cannot mask the outcome of an agent run.
func (w *MCPToolWrapper) Cleanup(ctx context.Context) {
	if !w.initialized.Load() {
		return
	}
	if err := w.standard.DisconnectAll(ctx); err != nil {
		w.logger.Error("Failed to disconnect standard MCP servers", slog.Any("error", err))
	}
	if err := w.custom.Close(ctx); err != nil {
		w.logger.Error("Failed to close custom MCP sessions", slog.Any("error", err))
	}
	w.mu.Lock()
	w.customTools = make(map[string]domain.ToolDescriptor)
	w.mu.Unlock()
	w.repository.Reset()
	if r, ok := w.executor.opts.Validator.(interface{ Reset() }); ok {
		r.Reset()
	}
	w.initialized.Store(false)
	w.logger.Info("MCP tool wrapper cleaned up")
}

// CallMCPToolSchema is the function schema of the fallback tool.
func CallMCPToolSchema() domain.FunctionSchema {
	return domain.NewFunctionSchema(CallMCPToolName,
		"Execute a tool from any connected MCP server. This is a fallback wrapper that forwards calls to MCP tools. "+
			"The tool_name should be in the format 'mcp_{server}_{tool}' or 'custom_{server}_{tool}'.",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tool_name": map[string]interface{}{
					"type":        "string",
					"description": "The full MCP tool name (e.g., 'mcp_exa_web_search_exa')",
				},
				"arguments": map[string]interface{}{
					"type":                 "object",
					"description":          "Arguments to pass to the MCP tool, as a JSON object. The required arguments depend on the specific tool being called.",
					"additionalProperties": true,
				},
			},
			"required": []interface{}{"tool_name", "arguments"},
		})
}

// IsToolNotFound reports whether err is a resolution failure.
func IsToolNotFound(err error) bool {
	return errors.Is(err, domain.ErrToolNotFound)
}
