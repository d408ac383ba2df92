// Package graph implements structural validation for workflow graphs:
// connection gating, cycle detection, whole-workflow validation and the
// import gate for serialized workflow documents.
package graph

import (
	"errors"

	"github.com/flowpad/flowpad/pkg/models"
)

// Connection rejection reasons. The messages are surfaced to users
// verbatim, so they are phrased as editor feedback rather than as
// internal error text.
var (
	ErrSelfConnection = errors.New("cannot connect a node to itself")
	ErrDuplicateEdge  = errors.New("connection already exists")
	ErrSourceIsEnd    = errors.New("end nodes cannot have outgoing connections")
	ErrTargetIsStart  = errors.New("start nodes cannot have incoming connections")
	ErrCreatesCycle   = errors.New("this connection would create an infinite loop")
)

// IsConnectionError reports whether err is one of the connection
// rejection reasons, as opposed to an infrastructure failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrSelfConnection) ||
		errors.Is(err, ErrDuplicateEdge) ||
		errors.Is(err, ErrSourceIsEnd) ||
		errors.Is(err, ErrTargetIsStart) ||
		errors.Is(err, ErrCreatesCycle)
}

// ValidateConnection decides whether an edge from source to target may be
// added to a graph that already contains edges. Checks run in a fixed
// order and the first failure wins: self-connection, duplicate edge,
// source is an End node, target is a Start node, and finally whether the
// new edge would close a cycle.
func ValidateConnection(source, target *models.Node, edges []*models.Edge) error {
	if source.ID == target.ID {
		return ErrSelfConnection
	}

	for _, edge := range edges {
		if edge.Source == source.ID && edge.Target == target.ID {
			return ErrDuplicateEdge
		}
	}

	if source.Type == models.NodeKindEnd {
		return ErrSourceIsEnd
	}

	if target.Type == models.NodeKindStart {
		return ErrTargetIsStart
	}

	if WouldCreateCycle(source.ID, target.ID, edges) {
		return ErrCreatesCycle
	}

	return nil
}

// WouldCreateCycle reports whether adding an edge sourceID -> targetID
// would close a directed cycle, i.e. whether sourceID is already
// reachable from targetID over the existing edges. It walks the graph
// iteratively in O(V+E).
func WouldCreateCycle(sourceID, targetID string, edges []*models.Edge) bool {
	if sourceID == targetID {
		return true
	}

	adjacency := make(map[string][]string)
	for _, edge := range edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	visited := make(map[string]bool)
	stack := []string{targetID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == sourceID {
			return true
		}

		if visited[current] {
			continue
		}

		visited[current] = true
		stack = append(stack, adjacency[current]...)
	}

	return false
}
