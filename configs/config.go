package configs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/toolwrap/internal/adapter/outbound/github"
	"github.com/i2y/toolwrap/internal/domain"
)

// EnvPrefix prefixes every environment variable, e.g. TOOLWRAP_LISTEN_ADDR.
const EnvPrefix = "toolwrap"

const defaultConfigFile = "configs/toolwrap.yaml"

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	Servers []domain.ServerConfig `yaml:"servers"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "TOOLWRAP_", potentially overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env). May be a github://owner/repo/path[@ref] reference.
	ConfigFilePath string `envconfig:"CONFIG_FILE" default:"configs/toolwrap.yaml"`

	// File-loaded fields
	Servers []domain.ServerConfig `ignored:"true"`

	// Environment-overridable fields
	ListenAddr        string        `envconfig:"LISTEN_ADDR" default:":8080"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8081"`
	DiscoveryTimeout  time.Duration `envconfig:"DISCOVERY_TIMEOUT" default:"15s"`
	CallTimeout       time.Duration `envconfig:"CALL_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerIdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`

	RegistryURL    string `envconfig:"REGISTRY_URL" default:"https://server.smithery.ai/{qualifiedName}/mcp"`
	RegistryAPIKey string `envconfig:"REGISTRY_API_KEY"`

	ErrorMessageLimit int  `envconfig:"ERROR_MESSAGE_LIMIT" default:"200"`
	ValidateArguments bool `envconfig:"VALIDATE_ARGUMENTS" default:"true"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text, json or pretty
	LogFile   string `envconfig:"LOG_FILE" default:"/tmp/toolwrap.log"`

	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads .env (if present), then environment variables (to get the file path),
// then the YAML server list with ${VAR} references expanded, and finally
// environment variables again for overrides.
// A missing file at the default path is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.ConfigFilePath != "" {
		data, err := readConfigFile(context.Background(), cfg.ConfigFilePath)
		switch {
		case errors.Is(err, fs.ErrNotExist) && cfg.ConfigFilePath == defaultConfigFile:
			slog.Info("No config file found, starting without servers.", "path", cfg.ConfigFilePath)
		case err != nil:
			return nil, err
		default:
			servers, err := ParseServers([]byte(os.ExpandEnv(string(data))))
			if err != nil {
				return nil, fmt.Errorf("failed to parse config file '%s': %w", cfg.ConfigFilePath, err)
			}
			cfg.Servers = servers
			slog.Info("Loaded configuration.", "path", cfg.ConfigFilePath, "servers", len(servers))
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}
	return &cfg, nil
}

// ParseServers decodes and validates the servers list of a YAML document.
func ParseServers(data []byte) ([]domain.ServerConfig, error) {
	var fileCfg FileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}
	for i := range fileCfg.Servers {
		s := &fileCfg.Servers[i]
		if s.IsCustom {
			s.CustomType = s.CustomType.Normalize()
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
	}
	if err := domain.ValidateServers(fileCfg.Servers); err != nil {
		return nil, err
	}
	return fileCfg.Servers, nil
}

func readConfigFile(ctx context.Context, path string) ([]byte, error) {
	if github.IsURL(path) {
		data, err := github.NewClient().FetchFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from GitHub '%s': %w", path, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return data, nil
}
