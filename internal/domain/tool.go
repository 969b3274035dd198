package domain

// ToolDescriptor is the normalized metadata of one callable tool, regardless of
// whether it was discovered on a standard MCP server or on a custom source.
// Descriptors are immutable once created and keyed by RawName.
type ToolDescriptor struct {
	// RawName is the namespaced identifier, e.g. "mcp_exa_web_search_exa"
	// or "custom_playwright_screenshot".
	RawName string `json:"raw_name"`

	// CleanName is the tool portion of RawName (see ParseToolName).
	CleanName string `json:"clean_name"`

	// ServerName is the server segment of RawName, "unknown" when it cannot be recovered.
	ServerName string `json:"server_name"`

	// Description is the text reported by the server. May be empty.
	Description string `json:"description,omitempty"`

	// ParameterSchema is the JSON Schema object the server declared for the tool input.
	// Nil means the server declared nothing.
	ParameterSchema map[string]interface{} `json:"parameter_schema,omitempty"`

	// IsCustom selects the backend used to invoke the tool: the custom handler
	// when true, the standard connection manager otherwise.
	IsCustom bool `json:"is_custom"`
}

// ToolResult is the uniform outcome of a tool invocation.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

// SuccessResult wraps output into a successful ToolResult.
func SuccessResult(output string) ToolResult {
	return ToolResult{Success: true, Output: output}
}

// FailResult wraps a message into a failed ToolResult.
func FailResult(msg string) ToolResult {
	return ToolResult{Success: false, Output: msg}
}

// FunctionSchema is the function-calling contract shown to the LLM layer:
// {"type": "function", "function": {"name", "description", "parameters"}}.
type FunctionSchema struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the inner "function" object of a FunctionSchema.
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// NewFunctionSchema builds a FunctionSchema of type "function".
func NewFunctionSchema(name, description string, parameters map[string]interface{}) FunctionSchema {
	return FunctionSchema{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// SchemaEntry pairs a method name with the function schema of its tool.
type SchemaEntry struct {
	MethodName string         `json:"method_name"`
	Schema     FunctionSchema `json:"schema"`
}

// EmptyObjectSchema returns a fresh JSON Schema accepting an object with no declared inputs.
func EmptyObjectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
		"required":   []interface{}{},
	}
}
