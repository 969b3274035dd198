package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/i2y/toolwrap/internal/domain"
)

// DefaultErrorMessageLimit bounds the error text placed in a failed ToolResult.
const DefaultErrorMessageLimit = 200

const instrumentationName = "github.com/i2y/toolwrap/internal/usecase"

// CustomToolTable reports whether a raw tool name belongs to a custom source.
type CustomToolTable func(rawName string) bool

// ExecutorOptions tunes an Executor. Zero values select the defaults.
type ExecutorOptions struct {
	// CallTimeout bounds a single invocation. Zero disables the bound.
	CallTimeout time.Duration
	// ErrorMessageLimit is the maximum number of characters kept from an error message.
	ErrorMessageLimit int
	// Validator checks arguments before routing. Optional.
	Validator ArgumentValidator
}

// Executor routes tool invocations to the standard manager or the custom handler
// and normalizes every outcome into a domain.ToolResult. It never returns an error.
type Executor struct {
	standard   StandardManager
	custom     CustomHandler
	isCustom   CustomToolTable
	opts       ExecutorOptions
	tracer     trace.Tracer
	calls      metric.Int64Counter
	durationMs metric.Float64Histogram
	logger     *slog.Logger
}

// NewExecutor creates an Executor. isCustom decides ownership; a nil table routes
// everything to the standard manager.
func NewExecutor(standard StandardManager, custom CustomHandler, isCustom CustomToolTable, opts ExecutorOptions, logger *slog.Logger) *Executor {
	if opts.ErrorMessageLimit <= 0 {
		opts.ErrorMessageLimit = DefaultErrorMessageLimit
	}
	if isCustom == nil {
		isCustom = func(string) bool { return false }
	}
	meter := otel.Meter(instrumentationName)
	calls, err := meter.Int64Counter("toolwrap.tool.calls",
		metric.WithDescription("Number of tool invocations"))
	if err != nil {
		logger.Warn("Failed to create tool call counter", slog.Any("error", err))
	}
	durationMs, err := meter.Float64Histogram("toolwrap.tool.duration",
		metric.WithDescription("Tool invocation latency"), metric.WithUnit("ms"))
	if err != nil {
		logger.Warn("Failed to create tool duration histogram", slog.Any("error", err))
	}
	return &Executor{
		standard:   standard,
		custom:     custom,
		isCustom:   isCustom,
		opts:       opts,
		tracer:     otel.Tracer(instrumentationName),
		calls:      calls,
		durationMs: durationMs,
		logger:     logger.With("usecase", "ExecuteTool"),
	}
}

// Execute invokes toolName with args. Names in the custom-tools table go to the
// custom handler; every other name, unknown ones included, goes to the standard manager.
func (e *Executor) Execute(ctx context.Context, toolName string, args map[string]interface{}) (result domain.ToolResult) {
	custom := e.isCustom(toolName)
	backend := "standard"
	if custom {
		backend = "custom"
	}
	log := e.logger.With(
		slog.String("tool_name", toolName),
		slog.String("backend", backend),
		slog.String("call_id", uuid.NewString()),
	)

	ctx, span := e.tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.String("tool.backend", backend),
	))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Tool invocation panicked", slog.Any("panic", r))
			result = domain.FailResult(e.errorMessage(toolName, fmt.Errorf("panic: %v", r)))
		}
		e.record(ctx, span, toolName, backend, result, time.Since(start))
	}()

	if args == nil {
		args = map[string]interface{}{}
	}
	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	if e.opts.Validator != nil {
		if err := e.opts.Validator.Validate(ctx, toolName, args); err != nil {
			log.Warn("Invalid tool arguments", slog.Any("error", err))
			return domain.FailResult(e.errorMessage(toolName, err))
		}
	}

	log.Info("Executing tool")
	var payload interface{}
	var err error
	if custom {
		payload, err = e.custom.CallTool(ctx, toolName, args)
	} else {
		payload, err = e.standard.CallTool(ctx, toolName, args)
	}
	if err != nil {
		log.Error("Tool invocation failed", slog.Any("error", err))
		return domain.FailResult(e.errorMessage(toolName, err))
	}

	output, err := canonicalText(payload)
	if err != nil {
		log.Error("Failed to encode tool output", slog.Any("error", err))
		return domain.FailResult(e.errorMessage(toolName, err))
	}
	log.Info("Tool invocation successful", slog.Int("output_len", len(output)))
	return domain.SuccessResult(output)
}

func (e *Executor) errorMessage(toolName string, err error) string {
	return TruncateMessage(fmt.Sprintf("Error executing tool %s: %v", toolName, err), e.opts.ErrorMessageLimit)
}

func (e *Executor) record(ctx context.Context, span trace.Span, toolName, backend string, result domain.ToolResult, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool.backend", backend),
		attribute.Bool("tool.success", result.Success),
	)
	if e.calls != nil {
		e.calls.Add(ctx, 1, attrs)
	}
	if e.durationMs != nil {
		e.durationMs.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
	span.SetAttributes(attribute.Bool("tool.success", result.Success))
	if !result.Success {
		span.SetStatus(codes.Error, result.Output)
	}
	span.End()
}

// TruncateMessage cuts msg to limit runes and appends "..." when it was cut.
func TruncateMessage(msg string, limit int) string {
	runes := []rune(msg)
	if limit <= 0 || len(runes) <= limit {
		return msg
	}
	return string(runes[:limit]) + "..."
}

// canonicalText renders a transport payload as tool output.
func canonicalText(payload interface{}) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
