// Package end implements the terminal node of a workflow graph.
package end

import "github.com/flowpad/flowpad/pkg/models"

const executedMessage = "Workflow execution completed"

// Node is the end node executor.
type Node struct {
	config *models.EndConfig
}

// New creates an end node executor for the given config.
func New(config *models.EndConfig) *Node {
	if config == nil {
		config = &models.EndConfig{}
	}

	return &Node{config: config}
}

// Execute passes the data record through unchanged.
func (n *Node) Execute(input map[string]any) (map[string]any, string, error) {
	return models.CopyRecord(input), executedMessage, nil
}
