package models

// Handle values carried by edges leaving a Condition node. Only these two
// are meaningful to execution; edges from other kinds leave the handle
// empty.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Edge is a directed connection between two nodes. SourceHandle selects the
// branch an edge represents when its source is a Condition node;
// TargetHandle is presentation-only and ignored by execution.
type Edge struct {
	ID           string `json:"id"     validate:"required"`
	Source       string `json:"source" validate:"required"`
	Target       string `json:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}

	clone := *e

	return &clone
}

// CloneEdges deep copies an edge slice.
func CloneEdges(edges []*Edge) []*Edge {
	if edges == nil {
		return nil
	}

	cloned := make([]*Edge, 0, len(edges))
	for _, edge := range edges {
		cloned = append(cloned, edge.Clone())
	}

	return cloned
}
