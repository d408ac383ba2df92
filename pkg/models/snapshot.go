package models

// Snapshot is the unit exchanged with the history service: a deep,
// non-aliased copy of the full graph state at one point in time. Restoring
// a snapshot copies again, so a stored snapshot stays intact however the
// live graph is mutated afterwards.
type Snapshot struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NewSnapshot captures a deep copy of the given graph state.
func NewSnapshot(nodes []*Node, edges []*Edge) *Snapshot {
	snapshot := &Snapshot{
		Nodes: CloneNodes(nodes),
		Edges: CloneEdges(edges),
	}

	if snapshot.Nodes == nil {
		snapshot.Nodes = []*Node{}
	}

	if snapshot.Edges == nil {
		snapshot.Edges = []*Edge{}
	}

	return snapshot
}

// Restore returns deep copies of the captured graph state, suitable for
// installing as the live graph.
func (s *Snapshot) Restore() ([]*Node, []*Edge) {
	return CloneNodes(s.Nodes), CloneEdges(s.Edges)
}
