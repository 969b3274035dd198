// Package dependency wires toolwrap services using go.uber.org/dig.
package dependency

import (
	"log/slog"

	"go.uber.org/dig"

	"github.com/i2y/toolwrap/configs"
	"github.com/i2y/toolwrap/internal/adapter/inbound/mcpserve"
	"github.com/i2y/toolwrap/internal/adapter/inbound/toolhttp"
	"github.com/i2y/toolwrap/internal/adapter/outbound/mcpclient"
	"github.com/i2y/toolwrap/internal/adapter/outbound/memrepo"
	"github.com/i2y/toolwrap/internal/adapter/outbound/schemacheck"
	"github.com/i2y/toolwrap/internal/usecase"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	wrapper   *usecase.MCPToolWrapper
	discover  *usecase.DiscoverCustomServerUseCase
	handlers  *toolhttp.Handlers
	registrar *mcpserve.Registrar
}

func (c *Container) Wrapper() *usecase.MCPToolWrapper                           { return c.wrapper }
func (c *Container) DiscoverCustomServer() *usecase.DiscoverCustomServerUseCase { return c.discover }
func (c *Container) HTTPHandlers() *toolhttp.Handlers                           { return c.handlers }
func (c *Container) Registrar() *mcpserve.Registrar                             { return c.registrar }

// Version is a named string so dig can tell the build version from other strings.
type Version string

// Options overrides pieces of the graph, mainly for tests.
type Options struct {
	// Dial replaces the MCP transport used by both connection layers.
	Dial mcpclient.Dialer
}

// New builds and wires all services from cfg.
func New(cfg *configs.Config, logger *slog.Logger, version Version, opts Options) (*Container, error) {
	d := dig.New()

	provides := []interface{}{
		func() *configs.Config { return cfg },
		func() *slog.Logger { return logger },
		func() Version { return version },
		func() mcpclient.Dialer { return opts.Dial },
		newRepository,
		newStandardManager,
		newCustomHandler,
		newExecutorOptions,
		newWrapper,
		usecase.NewDiscoverCustomServerUseCase,
		newHTTPHandlers,
		newRegistrar,
	}
	for _, p := range provides {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		wrapper *usecase.MCPToolWrapper,
		discover *usecase.DiscoverCustomServerUseCase,
		handlers *toolhttp.Handlers,
		registrar *mcpserve.Registrar,
	) {
		result = &Container{
			wrapper:   wrapper,
			discover:  discover,
			handlers:  handlers,
			registrar: registrar,
		}
	})
	return result, err
}

func newRepository(logger *slog.Logger) usecase.ToolRepository {
	return memrepo.NewInMemoryToolRepository(logger)
}

func newStandardManager(cfg *configs.Config, dial mcpclient.Dialer, logger *slog.Logger) usecase.StandardManager {
	return mcpclient.NewManager(mcpclient.ManagerOptions{
		RegistryURL: cfg.RegistryURL,
		APIKey:      cfg.RegistryAPIKey,
		Timeout:     cfg.DiscoveryTimeout,
		Dial:        dial,
	}, logger)
}

func newCustomHandler(cfg *configs.Config, dial mcpclient.Dialer, logger *slog.Logger) usecase.CustomHandler {
	return mcpclient.NewCustomHandler(dial, cfg.DiscoveryTimeout, logger)
}

func newExecutorOptions(cfg *configs.Config, repo usecase.ToolRepository, logger *slog.Logger) usecase.ExecutorOptions {
	opts := usecase.ExecutorOptions{
		CallTimeout:       cfg.CallTimeout,
		ErrorMessageLimit: cfg.ErrorMessageLimit,
	}
	if cfg.ValidateArguments {
		opts.Validator = schemacheck.NewSchemaValidator(repo, logger)
	}
	return opts
}

func newWrapper(
	cfg *configs.Config,
	standard usecase.StandardManager,
	custom usecase.CustomHandler,
	repo usecase.ToolRepository,
	opts usecase.ExecutorOptions,
	logger *slog.Logger,
) *usecase.MCPToolWrapper {
	return usecase.NewMCPToolWrapper(cfg.Servers, standard, custom, repo, opts, logger)
}

func newHTTPHandlers(wrapper *usecase.MCPToolWrapper, discover *usecase.DiscoverCustomServerUseCase, version Version, logger *slog.Logger) *toolhttp.Handlers {
	return toolhttp.NewHandlers(wrapper, discover, string(version), logger)
}

func newRegistrar(wrapper *usecase.MCPToolWrapper, logger *slog.Logger) *mcpserve.Registrar {
	return mcpserve.NewRegistrar(wrapper, logger)
}
