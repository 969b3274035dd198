package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/i2y/toolwrap/internal/domain"
)

// DiscoveryReport is the outcome of probing one custom server.
type DiscoveryReport struct {
	Server   string                  `json:"server"`
	Type     domain.CustomType       `json:"type"`
	Tools    []domain.ToolDescriptor `json:"tools"`
	TimedOut bool                    `json:"timed_out,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// DiscoverCustomServerUseCase lists the tools a custom server would contribute
// without registering them.
type DiscoverCustomServerUseCase struct {
	custom CustomHandler
	logger *slog.Logger
}

// NewDiscoverCustomServerUseCase creates a new DiscoverCustomServerUseCase.
func NewDiscoverCustomServerUseCase(custom CustomHandler, logger *slog.Logger) *DiscoverCustomServerUseCase {
	return &DiscoverCustomServerUseCase{
		custom: custom,
		logger: logger.With("usecase", "DiscoverCustomServer"),
	}
}

// Execute probes cfg. Configuration errors are returned; connection failures
// are reported in the DiscoveryReport.
func (uc *DiscoverCustomServerUseCase) Execute(ctx context.Context, cfg domain.ServerConfig) (DiscoveryReport, error) {
	cfg.IsCustom = true
	report := DiscoveryReport{Server: cfg.DisplayName(), Type: cfg.CustomType.Normalize(), Tools: []domain.ToolDescriptor{}}
	log := uc.logger.With(slog.String("server", report.Server), slog.String("type", string(report.Type)))

	if err := cfg.Validate(); err != nil {
		log.Warn("Rejected custom server configuration", slog.Any("error", err))
		return report, err
	}

	log.Info("Discovering custom MCP server")
	tools, err := uc.custom.Discover(ctx, cfg)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			return report, err
		}
		report.TimedOut = errors.Is(err, domain.ErrDiscoveryTimeout)
		report.Error = err.Error()
		log.Error("Custom MCP server discovery failed", slog.Bool("timeout", report.TimedOut), slog.Any("error", err))
		return report, nil
	}
	report.Tools = tools
	log.Info("Custom MCP server discovered", slog.Int("tool_count", len(tools)))
	return report, nil
}
