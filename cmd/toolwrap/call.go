package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [json-arguments]",
	Short: "Invoke a tool by method name or raw name",
	Example: `  toolwrap call web_search_exa '{"query":"model context protocol"}'
  toolwrap call mcp_exa_web_search_exa '{"query":"mcp"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	arguments := map[string]interface{}{}
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	ctx := commandContext(cmd)
	a, err := bootstrap(ctx, stderr)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	wrapper := a.container.Wrapper()
	result := wrapper.CallMCPTool(ctx, args[0], arguments)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("tool %s failed", args[0])
	}
	return nil
}
