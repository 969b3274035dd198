package toolhttp

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/toolwrap/internal/domain"
)

// BuildOpenAPI describes POST /tools/{method} for every function schema.
func BuildOpenAPI(schemas []domain.FunctionSchema, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "toolwrap",
			Description: "MCP tools exposed as HTTP operations",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	result := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("output", openapi3.NewStringSchema())
	result.Required = []string{"success", "output"}

	for _, schema := range schemas {
		fn := schema.Function
		op := openapi3.NewOperation()
		op.OperationID = fn.Name
		op.Summary = fn.Name
		op.Description = fn.Description
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(toOpenAPISchema(fn.Parameters)),
		}
		op.Responses = openapi3.NewResponses(
			openapi3.WithStatus(200, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Tool result").WithJSONSchema(result),
			}),
		)

		doc.Paths.Set("/tools/"+fn.Name, &openapi3.PathItem{Post: op})
	}
	return doc
}

// toOpenAPISchema converts a JSON Schema object. Schemas kin-openapi cannot
// parse degrade to a free-form object.
func toOpenAPISchema(parameters map[string]interface{}) *openapi3.Schema {
	fallback := openapi3.NewObjectSchema()
	if len(parameters) == 0 {
		return fallback
	}
	data, err := json.Marshal(parameters)
	if err != nil {
		return fallback
	}
	schema := openapi3.NewSchema()
	if err := json.Unmarshal(data, schema); err != nil {
		return fallback
	}
	return schema
}
