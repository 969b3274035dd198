package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/i2y/toolwrap/configs"
	"github.com/i2y/toolwrap/internal/dependency"
	"github.com/i2y/toolwrap/internal/telemetry"
)

const version = "0.1.0"

var configFile string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "toolwrap",
	Short: "Expose MCP server tools as callable functions",
	Long: "toolwrap connects to standard and custom MCP servers, synthesizes one " +
		"function per discovered tool and serves them over MCP, HTTP or the command line.",
	SilenceUsage: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "server config file or github://owner/repo/path[@ref] (overrides TOOLWRAP_CONFIG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(discoverCmd)
}

// app bundles what every subcommand needs.
type app struct {
	cfg       *configs.Config
	logger    *slog.Logger
	container *dependency.Container
	closers   []func(context.Context) error
}

// bootstrap loads configuration, builds the logger and wires dependencies.
// logTo receives logs; stdio serving passes a file so the protocol stream stays clean.
func bootstrap(ctx context.Context, logTo func(cfg *configs.Config) io.Writer) (*app, error) {
	if configFile != "" {
		if err := os.Setenv("TOOLWRAP_CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := telemetry.NewLogger(logTo(cfg), cfg.LogFormat, cfg.ParsedLogLevel(), "toolwrap")
	slog.SetDefault(logger)
	logger.Debug("Logger initialized.", slog.String("level", cfg.ParsedLogLevel().String()), slog.String("format", cfg.LogFormat))

	shutdownOtel, err := telemetry.InitProvider(ctx, telemetry.OtelOptions{
		Endpoint:       cfg.OtelExporterOtlpEndpoint,
		Insecure:       cfg.OtelExporterOtlpInsecure,
		ServiceName:    "toolwrap",
		ServiceVersion: version,
		Environment:    cfg.Environment,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	container, err := dependency.New(cfg, logger, dependency.Version(version), dependency.Options{})
	if err != nil {
		_ = shutdownOtel(ctx)
		return nil, fmt.Errorf("failed to wire dependencies: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, container: container}
	a.closers = append(a.closers, func(ctx context.Context) error {
		container.Wrapper().Cleanup(ctx)
		return nil
	}, shutdownOtel)
	return a, nil
}

// close runs cleanup in order: MCP sessions first, then telemetry.
func (a *app) close(ctx context.Context) {
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			a.logger.Error("Shutdown step failed.", slog.Any("error", err))
		}
	}
}

func stderr(*configs.Config) io.Writer { return os.Stderr }

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
