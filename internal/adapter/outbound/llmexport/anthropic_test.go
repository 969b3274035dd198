package llmexport_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/toolwrap/internal/adapter/outbound/llmexport"
	"github.com/i2y/toolwrap/internal/domain"
)

func TestAnthropicTools(t *testing.T) {
	schemas := []domain.FunctionSchema{
		domain.NewFunctionSchema("web_search_exa", "Search the web (MCP Server: exa)", map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required":             []interface{}{"query"},
			"additionalProperties": false,
		}),
		domain.NewFunctionSchema("take_screenshot", "  ", domain.EmptyObjectSchema()),
	}

	tools := llmexport.AnthropicTools(schemas)
	require.Len(t, tools, 2)

	first := tools[0].OfTool
	require.NotNil(t, first)
	assert.Equal(t, "web_search_exa", first.Name)
	assert.Equal(t, "Search the web (MCP Server: exa)", first.Description.Value)
	assert.Equal(t, []string{"query"}, first.InputSchema.Required)
	assert.Equal(t, false, first.InputSchema.ExtraFields["additionalProperties"])

	data, err := json.Marshal(first)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "web_search_exa", decoded["name"])
	inputSchema, ok := decoded["input_schema"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "object", inputSchema["type"])
	assert.Contains(t, inputSchema["properties"], "query")

	second := tools[1].OfTool
	require.NotNil(t, second)
	assert.False(t, second.Description.Valid(), "blank descriptions are omitted")
}
