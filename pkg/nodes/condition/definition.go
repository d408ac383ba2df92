package condition

import "github.com/flowpad/flowpad/pkg/models"

// Label returns the default display label for new condition nodes.
func Label() string {
	return "Condition"
}

// Description returns the palette description for condition nodes.
func Description() string {
	return "Evaluates a comparison on one field and routes execution to the true or false branch"
}

// DefaultConfig returns the config a freshly placed condition node starts with.
func DefaultConfig() models.NodeConfig {
	return &models.ConditionConfig{
		Field:    "value",
		Operator: models.ConditionGreaterThan,
		Value:    float64(0),
	}
}

// Schema returns the JSON schema for condition node configuration.
func Schema() map[string]any {
	operators := make([]string, 0, len(models.ConditionOperators()))
	for _, operator := range models.ConditionOperators() {
		operators = append(operators, string(operator))
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Field of the data record the comparison reads",
			},
			"operator": map[string]any{
				"type":        "string",
				"enum":        operators,
				"description": "Comparison applied to the field value",
			},
			"value": map[string]any{
				"type":        []string{"string", "number", "boolean"},
				"description": "Comparison operand; ignored by unary operators",
			},
		},
		"required":             []string{"field", "operator"},
		"additionalProperties": false,
	}
}
