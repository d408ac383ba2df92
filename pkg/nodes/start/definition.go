package start

import "github.com/flowpad/flowpad/pkg/models"

// Label returns the default display label for new start nodes.
func Label() string {
	return "Start"
}

// Description returns the palette description for start nodes.
func Description() string {
	return "Entry point of the workflow. Seeds each run with its configured payload."
}

// DefaultConfig returns the config a freshly placed start node starts with.
func DefaultConfig() models.NodeConfig {
	return &models.StartConfig{
		Payload: map[string]any{"message": "Hello World"},
	}
}

// Schema returns the JSON schema for start node configuration.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"payload": map[string]any{
				"type":        "object",
				"description": "Initial data record handed to the first nodes of the run",
			},
		},
		"additionalProperties": false,
	}
}
