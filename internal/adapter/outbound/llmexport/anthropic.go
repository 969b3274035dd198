// Package llmexport renders the wrapper's function schemas in the tool formats
// LLM provider SDKs accept.
package llmexport

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/i2y/toolwrap/internal/domain"
)

// AnthropicTools converts function schemas into Anthropic tool definitions.
func AnthropicTools(schemas []domain.FunctionSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, schema := range schemas {
		param := anthropic.ToolParam{
			Name:        schema.Function.Name,
			InputSchema: anthropicInputSchema(schema.Function.Parameters),
		}
		if desc := strings.TrimSpace(schema.Function.Description); desc != "" {
			param.Description = anthropic.String(desc)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

func anthropicInputSchema(parameters map[string]interface{}) anthropic.ToolInputSchemaParam {
	param := anthropic.ToolInputSchemaParam{
		Properties: parameters["properties"],
		Required:   requiredFields(parameters["required"]),
	}
	if param.Properties == nil {
		param.Properties = map[string]interface{}{}
	}
	extras := map[string]interface{}{}
	for key, value := range parameters {
		switch key {
		case "properties", "required", "type":
		default:
			extras[key] = value
		}
	}
	if len(extras) > 0 {
		param.ExtraFields = extras
	}
	return param
}

func requiredFields(value interface{}) []string {
	switch items := value.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
