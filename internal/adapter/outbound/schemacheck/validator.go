package schemacheck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/i2y/toolwrap/internal/usecase"
)

// SchemaValidator implements usecase.ArgumentValidator by checking arguments
// against the input schema a tool declared. Tools whose schema is absent or
// cannot be resolved are not checked.
type SchemaValidator struct {
	repository usecase.ToolRepository
	logger     *slog.Logger

	mu       sync.Mutex
	resolved map[string]*jsonschema.Resolved // raw name -> resolved schema, nil when unusable
}

// NewSchemaValidator creates a validator reading schemas from repository.
func NewSchemaValidator(repository usecase.ToolRepository, logger *slog.Logger) *SchemaValidator {
	return &SchemaValidator{
		repository: repository,
		logger:     logger.With("component", "schema_validator"),
		resolved:   make(map[string]*jsonschema.Resolved),
	}
}

// Validate returns an error describing the first schema violation of args.
func (v *SchemaValidator) Validate(ctx context.Context, rawName string, args map[string]interface{}) error {
	resolved := v.schemaFor(rawName)
	if resolved == nil {
		return nil
	}
	instance, err := normalize(args)
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Reset forgets cached schemas, e.g. after the wrapper re-discovers tools.
func (v *SchemaValidator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resolved = make(map[string]*jsonschema.Resolved)
}

func (v *SchemaValidator) schemaFor(rawName string) *jsonschema.Resolved {
	v.mu.Lock()
	defer v.mu.Unlock()

	if resolved, ok := v.resolved[rawName]; ok {
		return resolved
	}
	tool, ok := v.repository.FindByRawName(rawName)
	if !ok || len(tool.Descriptor.ParameterSchema) == 0 {
		// Not cached: the tool may be registered later.
		return nil
	}
	resolved, err := resolve(tool.Descriptor.ParameterSchema)
	if err != nil {
		v.logger.Debug("Skipping validation for unresolvable schema",
			slog.String("tool_name", rawName), slog.Any("error", err))
	}
	v.resolved[rawName] = resolved
	return resolved
}

func resolve(raw map[string]interface{}) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return schema.Resolve(nil)
}

// normalize turns Go values into the JSON value model the validator expects.
func normalize(args map[string]interface{}) (interface{}, error) {
	if args == nil {
		return map[string]interface{}{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
