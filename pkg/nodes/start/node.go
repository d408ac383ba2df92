// Package start implements the entry node of a workflow graph. It seeds
// the traversal with the payload configured on the node.
package start

import "github.com/flowpad/flowpad/pkg/models"

const executedMessage = "Started workflow execution"

// Node is the start node executor.
type Node struct {
	config *models.StartConfig
}

// New creates a start node executor for the given config.
func New(config *models.StartConfig) *Node {
	if config == nil {
		config = &models.StartConfig{}
	}

	return &Node{config: config}
}

// Execute ignores its input and emits a copy of the configured payload.
func (n *Node) Execute(_ map[string]any) (map[string]any, string, error) {
	return models.CopyRecord(n.config.Payload), executedMessage, nil
}
