package transform

import "github.com/flowpad/flowpad/pkg/models"

// Label returns the default display label for new transform nodes.
func Label() string {
	return "Transform"
}

// Description returns the palette description for transform nodes.
func Description() string {
	return "Rewrites one field of the data record using a string or numeric operation"
}

// DefaultConfig returns the config a freshly placed transform node starts with.
func DefaultConfig() models.NodeConfig {
	return &models.TransformConfig{
		Operation: models.TransformUppercase,
		Field:     "message",
	}
}

// Schema returns the JSON schema for transform node configuration.
func Schema() map[string]any {
	operations := make([]string, 0, len(models.TransformOperations()))
	for _, operation := range models.TransformOperations() {
		operations = append(operations, string(operation))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        operations,
				"description": "Rewrite applied to the target field",
			},
			"field": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Field of the data record to rewrite",
			},
			"value": map[string]any{
				"type":        []string{"string", "number"},
				"description": "Operand for append, prepend, multiply, add and replace",
			},
		},
		"required":             []string{"operation", "field"},
		"additionalProperties": false,
	}
}
