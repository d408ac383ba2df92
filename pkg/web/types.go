// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/flowpad/flowpad/pkg/models"

// CreateWorkflowRequest represents the request body for creating a new workflow.
// New workflows start with an empty graph; nodes and edges are added through
// the editor endpoints.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`
}

// UpdateWorkflowRequest represents the request body for updating workflow
// metadata. All fields are optional to support partial updates; the graph
// itself is managed through the node and edge endpoints.
type UpdateWorkflowRequest struct {
	Name        *string          `json:"name,omitempty"        validate:"omitempty,min=1"`
	Description *string          `json:"description,omitempty"`
	Viewport    *models.Viewport `json:"viewport,omitempty"`
}

// CreateNodeRequest represents the request body for placing a node on the
// canvas. Label and Config are optional; absent values fall back to the
// palette defaults for the kind.
type CreateNodeRequest struct {
	Kind     models.NodeKind `json:"kind"             validate:"required"`
	Label    string          `json:"label,omitempty"`
	Position models.Position `json:"position"`
	Config   map[string]any  `json:"config,omitempty"`
}

// UpdateNodeRequest represents the request body for updating an existing
// node. The kind cannot be changed; absent fields keep their current values.
type UpdateNodeRequest struct {
	Label    *string          `json:"label,omitempty"`
	Position *models.Position `json:"position,omitempty"`
	Config   map[string]any   `json:"config,omitempty"`
}

// CreateEdgeRequest represents the request body for connecting two nodes.
// SourceHandle selects the branch on condition nodes ("true" or "false").
type CreateEdgeRequest struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// HistoryResponse carries the workflow state after an undo or redo together
// with the remaining history availability.
type HistoryResponse struct {
	Workflow *models.Workflow `json:"workflow"`
	CanUndo  bool             `json:"can_undo"`
	CanRedo  bool             `json:"can_redo"`
}
