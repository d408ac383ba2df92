package models

import "time"

// Viewport is the canvas camera state. The engine carries it through
// documents untouched.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Clone returns a copy of the viewport.
func (v *Viewport) Clone() *Viewport {
	if v == nil {
		return nil
	}

	clone := *v

	return &clone
}

// Workflow is the persistence aggregate: a named graph of nodes and edges
// plus its canvas viewport.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,min=1"`
	Description string    `json:"description,omitempty"`
	Nodes       []*Node   `json:"nodes"`
	Edges       []*Edge   `json:"edges"`
	Viewport    *Viewport `json:"viewport,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EdgeByID returns the edge with the given ID, or nil.
func (w *Workflow) EdgeByID(id string) *Edge {
	for _, edge := range w.Edges {
		if edge.ID == id {
			return edge
		}
	}

	return nil
}

// Clone returns a deep copy sharing no mutable state with the original.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	return &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Nodes:       CloneNodes(w.Nodes),
		Edges:       CloneEdges(w.Edges),
		Viewport:    w.Viewport.Clone(),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// Document exports the workflow's graph as a standalone document. The
// returned document is deeply copied and never aliases live graph state.
func (w *Workflow) Document() *WorkflowDocument {
	doc := &WorkflowDocument{
		Nodes:    CloneNodes(w.Nodes),
		Edges:    CloneEdges(w.Edges),
		Viewport: w.Viewport.Clone(),
	}

	if doc.Nodes == nil {
		doc.Nodes = []*Node{}
	}

	if doc.Edges == nil {
		doc.Edges = []*Edge{}
	}

	return doc
}

// WorkflowDocument is the exchange format for export, import, autosave and
// history: the full graph plus the opaque viewport.
type WorkflowDocument struct {
	Nodes    []*Node   `json:"nodes"`
	Edges    []*Edge   `json:"edges"`
	Viewport *Viewport `json:"viewport,omitempty"`
}

// Clone returns a deep copy of the document.
func (d *WorkflowDocument) Clone() *WorkflowDocument {
	if d == nil {
		return nil
	}

	return &WorkflowDocument{
		Nodes:    CloneNodes(d.Nodes),
		Edges:    CloneEdges(d.Edges),
		Viewport: d.Viewport.Clone(),
	}
}
