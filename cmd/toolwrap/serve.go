package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/toolwrap/configs"
)

var serveTransport string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wrapped tools as one MCP server plus an HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "sse", "MCP transport: sse, http or stdio")
}

func runServe(cmd *cobra.Command, _ []string) error {
	switch serveTransport {
	case "sse", "http", "stdio":
	default:
		return fmt.Errorf("invalid transport %q: want sse, http or stdio", serveTransport)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logTo := stderr
	if serveTransport == "stdio" {
		logTo = logFile
	}
	a, err := bootstrap(ctx, logTo)
	if err != nil {
		return err
	}
	logger := a.logger.With(slog.String("transport", serveTransport))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.close(shutdownCtx)
	}()

	mcpSrv := mcpGoServer.NewMCPServer("toolwrap", version, mcpGoServer.WithToolCapabilities(true))
	count, err := a.container.Registrar().Register(ctx, mcpSrv)
	if err != nil {
		return err
	}
	logger.Info("MCP server initialized.", slog.Int("tool_count", count))

	switch serveTransport {
	case "stdio":
		logger.Info("Starting in STDIO mode")
		if err := mcpGoServer.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil

	default:
		var mcpHandler interface {
			Start(addr string) error
			Shutdown(ctx context.Context) error
		}
		if serveTransport == "sse" {
			mcpHandler = mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+a.cfg.ListenAddr))
		} else {
			mcpHandler = mcpGoServer.NewStreamableHTTPServer(mcpSrv)
		}

		apiMux := http.NewServeMux()
		a.container.HTTPHandlers().RegisterRoutes(apiMux)
		apiServer := &http.Server{
			Addr:        a.cfg.HTTPAddr,
			Handler:     apiMux,
			ReadTimeout: a.cfg.ServerReadTimeout,
			IdleTimeout: a.cfg.ServerIdleTimeout,
		}

		go func() {
			logger.Info("HTTP API server starting.", slog.String("address", apiServer.Addr))
			if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP API server failed.", slog.Any("error", err))
				stop()
			}
		}()
		go func() {
			logger.Info("MCP server starting.", slog.String("address", a.cfg.ListenAddr))
			if err := mcpHandler.Start(a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("MCP server failed.", slog.Any("error", err))
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP API server graceful shutdown failed.", slog.Any("error", err))
		}
		if err := mcpHandler.Shutdown(shutdownCtx); err != nil {
			logger.Error("MCP server graceful shutdown failed.", slog.Any("error", err))
		}
		logger.Info("Servers shut down gracefully.")
	}
	return nil
}

// logFile keeps logs off stdout/stderr in stdio mode.
func logFile(cfg *configs.Config) io.Writer {
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}
