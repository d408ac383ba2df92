// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"

	"github.com/flowpad/flowpad/pkg/models"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Type:     models.NodeKindTransform,
		Position: models.Position{X: 100, Y: 200},
		Data: models.NodeData{
			NodeType: models.NodeKindTransform,
			Label:    "Test Node",
			Config: &models.TransformConfig{
				Operation: models.TransformUppercase,
				Field:     "message",
			},
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithNodeID sets the node ID.
func WithNodeID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithKind sets both the node type and the mirrored data nodeType.
func WithKind(kind models.NodeKind) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = kind
		n.Data.NodeType = kind
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Label = label
	}
}

// WithConfig sets the node configuration.
func WithConfig(config models.NodeConfig) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Config = config
	}
}

// WithPosition sets the node canvas position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// StartNode creates a start node carrying the given payload.
func StartNode(id string, payload map[string]any) *models.Node {
	return CreateTestNode(
		WithNodeID(id),
		WithKind(models.NodeKindStart),
		WithLabel("Start"),
		WithConfig(&models.StartConfig{Payload: payload}),
	)
}

// TransformNode creates a transform node for the given operation.
func TransformNode(id string, operation models.TransformOperation, field string, value any) *models.Node {
	return CreateTestNode(
		WithNodeID(id),
		WithKind(models.NodeKindTransform),
		WithLabel("Transform"),
		WithConfig(&models.TransformConfig{Operation: operation, Field: field, Value: value}),
	)
}

// ConditionNode creates a condition node for the given comparison.
func ConditionNode(id, field string, operator models.ConditionOperator, value any) *models.Node {
	return CreateTestNode(
		WithNodeID(id),
		WithKind(models.NodeKindCondition),
		WithLabel("Condition"),
		WithConfig(&models.ConditionConfig{Field: field, Operator: operator, Value: value}),
	)
}

// EndNode creates an end node.
func EndNode(id string) *models.Node {
	return CreateTestNode(
		WithNodeID(id),
		WithKind(models.NodeKindEnd),
		WithLabel("End"),
		WithConfig(&models.EndConfig{Label: "End"}),
	)
}

// EdgeBetween creates a plain edge between two nodes.
func EdgeBetween(id, source, target string) *models.Edge {
	return &models.Edge{ID: id, Source: source, Target: target}
}

// BranchEdge creates an edge leaving a condition node on the given branch
// handle, models.HandleTrue or models.HandleFalse.
func BranchEdge(id, source, target, handle string) *models.Edge {
	return &models.Edge{ID: id, Source: source, Target: target, SourceHandle: handle}
}

// CreateTestWorkflow creates a workflow with the given graph and default
// metadata that can be overridden.
func CreateTestWorkflow(nodes []*models.Node, edges []*models.Edge, overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:    uuid.New().String(),
		Name:  "Test Workflow",
		Nodes: nodes,
		Edges: edges,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithWorkflowID sets the workflow ID.
func WithWorkflowID(id string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.ID = id
	}
}

// WithWorkflowName sets the workflow name.
func WithWorkflowName(name string) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Name = name
	}
}
