package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i2y/toolwrap/internal/domain"
)

var discoverFlags struct {
	name    string
	kind    string
	url     string
	command string
	args    []string
	headers []string
	env     []string
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the tools a custom MCP server would contribute",
	Example: `  toolwrap discover --name playwright --type sse --url http://localhost:8931/sse
  toolwrap discover --name fs --type stdio --command npx --arg -y --arg @modelcontextprotocol/server-filesystem --arg /tmp`,
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.StringVar(&discoverFlags.name, "name", "", "server name")
	f.StringVar(&discoverFlags.kind, "type", "sse", "transport: sse, http or stdio")
	f.StringVar(&discoverFlags.url, "url", "", "server URL (sse, http)")
	f.StringVar(&discoverFlags.command, "command", "", "command to spawn (stdio)")
	f.StringArrayVar(&discoverFlags.args, "arg", nil, "command argument, repeatable (stdio)")
	f.StringArrayVar(&discoverFlags.headers, "header", nil, "KEY=VALUE request header, repeatable (sse, http)")
	f.StringArrayVar(&discoverFlags.env, "env", nil, "KEY=VALUE environment variable, repeatable (stdio)")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg := domain.ServerConfig{
		Name:       discoverFlags.name,
		IsCustom:   true,
		CustomType: domain.CustomType(discoverFlags.kind),
		Config:     map[string]interface{}{},
	}
	if discoverFlags.url != "" {
		cfg.Config["url"] = discoverFlags.url
	}
	if discoverFlags.command != "" {
		cfg.Config["command"] = discoverFlags.command
	}
	if len(discoverFlags.args) > 0 {
		cfg.Config["args"] = discoverFlags.args
	}
	headers, err := keyValues(discoverFlags.headers)
	if err != nil {
		return err
	}
	if len(headers) > 0 {
		cfg.Config["headers"] = headers
	}
	env, err := keyValues(discoverFlags.env)
	if err != nil {
		return err
	}
	if len(env) > 0 {
		cfg.Config["env"] = env
	}

	ctx := commandContext(cmd)
	a, err := bootstrap(ctx, stderr)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	report, err := a.container.DiscoverCustomServer().Execute(ctx, cfg)
	if err != nil {
		return err
	}
	if err := printJSON(report); err != nil {
		return err
	}
	if report.Error != "" {
		return fmt.Errorf("discovery of %s failed", report.Server)
	}
	return nil
}

func keyValues(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", pair)
		}
		out[k] = v
	}
	return out, nil
}
