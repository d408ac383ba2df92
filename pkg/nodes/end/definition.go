package end

import "github.com/flowpad/flowpad/pkg/models"

// Label returns the default display label for new end nodes.
func Label() string {
	return "End"
}

// Description returns the palette description for end nodes.
func Description() string {
	return "Marks the completion of an execution path"
}

// DefaultConfig returns the config a freshly placed end node starts with.
func DefaultConfig() models.NodeConfig {
	return &models.EndConfig{Label: "End"}
}

// Schema returns the JSON schema for end node configuration.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label": map[string]any{
				"type":        "string",
				"description": "Text shown on the completion badge",
			},
		},
		"additionalProperties": false,
	}
}
