package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i2y/toolwrap/internal/adapter/inbound/toolhttp"
	"github.com/i2y/toolwrap/internal/adapter/outbound/llmexport"
	"github.com/i2y/toolwrap/internal/domain"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Discover tools and print their function schemas",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsFormat, "format", "f", "openai", "output format: openai, anthropic, openapi or descriptors")
}

func runTools(cmd *cobra.Command, _ []string) error {
	if !validToolsFormat(toolsFormat) {
		return fmt.Errorf("unknown format %q", toolsFormat)
	}
	ctx := commandContext(cmd)
	a, err := bootstrap(ctx, stderr)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	out, err := renderTools(ctx, a.container.Wrapper(), toolsFormat)
	if err != nil {
		return err
	}
	return printJSON(out)
}

// toolLister is the part of the wrapper the tools command reads.
type toolLister interface {
	FunctionSchemas(ctx context.Context) ([]domain.FunctionSchema, error)
	GetAvailableTools(ctx context.Context) ([]domain.ToolDescriptor, error)
}

func validToolsFormat(format string) bool {
	switch format {
	case "openai", "anthropic", "openapi", "descriptors":
		return true
	}
	return false
}

func renderTools(ctx context.Context, tools toolLister, format string) (interface{}, error) {
	if format == "descriptors" {
		return tools.GetAvailableTools(ctx)
	}
	schemas, err := tools.FunctionSchemas(ctx)
	if err != nil {
		return nil, err
	}
	switch format {
	case "openai":
		return schemas, nil
	case "anthropic":
		return llmexport.AnthropicTools(schemas), nil
	case "openapi":
		return toolhttp.BuildOpenAPI(schemas, version), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
