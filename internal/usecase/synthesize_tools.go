package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/i2y/toolwrap/internal/domain"
)

// Invoker runs one synthesized tool with the given arguments.
type Invoker func(ctx context.Context, args map[string]interface{}) domain.ToolResult

// ExecuteFunc is the shared invocation backend every Invoker forwards to.
type ExecuteFunc func(ctx context.Context, rawName string, args map[string]interface{}) domain.ToolResult

// SynthesizedTool is a runtime-built invoker bound to one tool descriptor.
type SynthesizedTool struct {
	MethodName string
	Descriptor domain.ToolDescriptor
	Schema     domain.FunctionSchema
	Invoke     Invoker
}

// Synthesizer turns tool descriptors into SynthesizedTools and registers them.
type Synthesizer struct {
	repository ToolRepository
	logger     *slog.Logger
}

// NewSynthesizer creates a Synthesizer writing into repository.
func NewSynthesizer(repository ToolRepository, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		repository: repository,
		logger:     logger.With("usecase", "Synthesize"),
	}
}

// Build creates the SynthesizedTool for rawName and registers it under its raw
// name and, with its schema, under its method name. Missing descriptions and
// parameter schemas degrade to defaults.
func (s *Synthesizer) Build(rawName string, descriptor domain.ToolDescriptor, execute ExecuteFunc) SynthesizedTool {
	methodName, cleanName, serverName := domain.ParseToolName(rawName)

	description := descriptor.Description
	if description == "" {
		description = fmt.Sprintf("MCP tool from %s", serverName)
	}
	description = fmt.Sprintf("%s (MCP Server: %s)", description, serverName)

	parameters := descriptor.ParameterSchema
	if len(parameters) == 0 {
		parameters = domain.EmptyObjectSchema()
	}

	descriptor.RawName = rawName
	descriptor.CleanName = cleanName
	descriptor.ServerName = serverName

	schema := domain.NewFunctionSchema(methodName, description, parameters)
	tool := SynthesizedTool{
		MethodName: methodName,
		Descriptor: descriptor,
		Schema:     schema,
		Invoke: func(ctx context.Context, args map[string]interface{}) domain.ToolResult {
			return execute(ctx, rawName, args)
		},
	}

	if existing, ok := s.repository.FindByMethodName(methodName); ok && existing.Descriptor.RawName != rawName {
		s.logger.Warn("Method name collision, later tool wins",
			slog.String("method_name", methodName),
			slog.String("previous", existing.Descriptor.RawName),
			slog.String("tool_name", rawName))
	}
	s.repository.Register(tool, domain.SchemaEntry{MethodName: methodName, Schema: schema})
	s.logger.Debug("Synthesized tool", slog.String("tool_name", rawName), slog.String("method_name", methodName))
	return tool
}

// BuildAll builds every descriptor in raw-name order, so on a method name
// collision the tool sorting last wins. A failure on one tool is logged and the
// batch continues. It returns the number of tools built.
func (s *Synthesizer) BuildAll(descriptors map[string]domain.ToolDescriptor, execute ExecuteFunc) int {
	rawNames := make([]string, 0, len(descriptors))
	for rawName := range descriptors {
		rawNames = append(rawNames, rawName)
	}
	sort.Strings(rawNames)

	built := 0
	for _, rawName := range rawNames {
		if s.buildOne(rawName, descriptors[rawName], execute) {
			built++
		}
	}
	s.logger.Info("Synthesized tools", slog.Int("count", built), slog.Int("total", len(descriptors)))
	return built
}

func (s *Synthesizer) buildOne(rawName string, descriptor domain.ToolDescriptor, execute ExecuteFunc) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Failed to synthesize tool", slog.String("tool_name", rawName), slog.Any("error", r))
			ok = false
		}
	}()
	if rawName == "" {
		s.logger.Warn("Skipping tool with empty name")
		return false
	}
	s.Build(rawName, descriptor, execute)
	return true
}
