package registry

import (
	"github.com/flowpad/flowpad/pkg/models"
	conditionnode "github.com/flowpad/flowpad/pkg/nodes/condition"
	endnode "github.com/flowpad/flowpad/pkg/nodes/end"
	startnode "github.com/flowpad/flowpad/pkg/nodes/start"
	transformnode "github.com/flowpad/flowpad/pkg/nodes/transform"
)

// Handle directions as rendered on the canvas.
const (
	HandleSource = "source"
	HandleTarget = "target"
)

// HandleDefinition describes one connection point of a node kind. The ID
// distinguishes branch handles on condition nodes and is carried on edges
// as sourceHandle.
type HandleDefinition struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
}

// NodeDefinition describes one node kind for the editor palette.
type NodeDefinition struct {
	Kind         models.NodeKind    `json:"kind"`
	Label        string             `json:"label"`
	Description  string             `json:"description"`
	Default      models.NodeConfig  `json:"default_config"`
	ConfigSchema map[string]any     `json:"config_schema"`
	Handles      []HandleDefinition `json:"handles"`
}

func buildDefinitions() []NodeDefinition {
	return []NodeDefinition{
		{
			Kind:         models.NodeKindStart,
			Label:        startnode.Label(),
			Description:  startnode.Description(),
			Default:      startnode.DefaultConfig(),
			ConfigSchema: startnode.Schema(),
			Handles: []HandleDefinition{
				{Type: HandleSource},
			},
		},
		{
			Kind:         models.NodeKindTransform,
			Label:        transformnode.Label(),
			Description:  transformnode.Description(),
			Default:      transformnode.DefaultConfig(),
			ConfigSchema: transformnode.Schema(),
			Handles: []HandleDefinition{
				{Type: HandleTarget},
				{Type: HandleSource},
			},
		},
		{
			Kind:         models.NodeKindCondition,
			Label:        conditionnode.Label(),
			Description:  conditionnode.Description(),
			Default:      conditionnode.DefaultConfig(),
			ConfigSchema: conditionnode.Schema(),
			Handles: []HandleDefinition{
				{Type: HandleTarget},
				{ID: models.HandleTrue, Type: HandleSource},
				{ID: models.HandleFalse, Type: HandleSource},
			},
		},
		{
			Kind:         models.NodeKindEnd,
			Label:        endnode.Label(),
			Description:  endnode.Description(),
			Default:      endnode.DefaultConfig(),
			ConfigSchema: endnode.Schema(),
			Handles: []HandleDefinition{
				{Type: HandleTarget},
			},
		},
	}
}
