// Package models defines the core graph data model for flowpad workflows.
package models

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies one of the built-in node types. The set is closed:
// execution dispatches on it exhaustively and rejects anything else.
type NodeKind string

const (
	NodeKindStart     NodeKind = "start"
	NodeKindTransform NodeKind = "transform"
	NodeKindCondition NodeKind = "condition"
	NodeKindEnd       NodeKind = "end"
)

// NodeKinds returns all node kinds in palette order.
func NodeKinds() []NodeKind {
	return []NodeKind{NodeKindStart, NodeKindTransform, NodeKindCondition, NodeKindEnd}
}

// Valid reports whether the kind is one of the built-in node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindStart, NodeKindTransform, NodeKindCondition, NodeKindEnd:
		return true
	default:
		return false
	}
}

// Position is the node's canvas coordinate. The engine treats it as opaque
// presentation data and only carries it through documents and snapshots.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the editable payload of a node: its display label and the
// kind-specific configuration. NodeType mirrors Node.Type so exported
// documents keep the shape canvas clients expect.
type NodeData struct {
	NodeType NodeKind   `json:"nodeType"`
	Label    string     `json:"label"`
	Config   NodeConfig `json:"config,omitempty"`
}

type nodeDataJSON struct {
	NodeType NodeKind        `json:"nodeType"`
	Label    string          `json:"label"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// MarshalJSON encodes the data with the config serialized according to its
// concrete kind.
func (d NodeData) MarshalJSON() ([]byte, error) {
	out := nodeDataJSON{NodeType: d.NodeType, Label: d.Label}

	if d.Config != nil {
		raw, err := json.Marshal(d.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s config: %w", d.NodeType, err)
		}

		out.Config = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes the data, dispatching the config payload on the
// embedded nodeType discriminator.
func (d *NodeData) UnmarshalJSON(data []byte) error {
	var raw nodeDataJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	config, err := UnmarshalConfig(raw.NodeType, raw.Config)
	if err != nil {
		return err
	}

	d.NodeType = raw.NodeType
	d.Label = raw.Label
	d.Config = config

	return nil
}

// Node is a vertex in the workflow graph.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     NodeKind `json:"type"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// DisplayName returns the node's label, falling back to its ID for nodes
// that were never named.
func (n *Node) DisplayName() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}

	return n.ID
}

// Clone returns a deep copy sharing no mutable state with the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := &Node{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data: NodeData{
			NodeType: n.Data.NodeType,
			Label:    n.Data.Label,
		},
	}

	if n.Data.Config != nil {
		clone.Data.Config = n.Data.Config.Clone()
	}

	return clone
}

// CloneNodes deep copies a node slice.
func CloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}

	cloned := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		cloned = append(cloned, node.Clone())
	}

	return cloned
}
