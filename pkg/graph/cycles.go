package graph

import "github.com/flowpad/flowpad/pkg/models"

type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS path
	black              // fully explored
)

// CycleReport is the result of a full-graph cycle search. When a cycle is
// found, Path holds the node IDs along it, starting and ending at the
// node where the back edge closes.
type CycleReport struct {
	HasCycle bool     `json:"has_cycle"`
	Path     []string `json:"path,omitempty"`
}

// DetectCycles searches the whole graph for a directed cycle using a
// three-color depth-first traversal. Roots are tried in the order nodes
// are supplied, so the same graph always yields the same report.
func DetectCycles(nodes []*models.Node, edges []*models.Edge) CycleReport {
	adjacency := make(map[string][]string)
	for _, edge := range edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	colors := make(map[string]color, len(nodes))
	parents := make(map[string]string)

	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray

		for _, next := range adjacency[id] {
			switch colors[next] {
			case gray:
				// Back edge: next is on the current path, so the
				// segment next -> ... -> id -> next is a cycle.
				cycle = reconstructCycle(parents, id, next)

				return true
			case white:
				parents[next] = id
				if visit(next) {
					return true
				}
			case black:
			}
		}

		colors[id] = black

		return false
	}

	for _, node := range nodes {
		if colors[node.ID] != white {
			continue
		}

		if visit(node.ID) {
			return CycleReport{HasCycle: true, Path: cycle}
		}
	}

	return CycleReport{}
}

// reconstructCycle walks the parent chain from the tail of a back edge up
// to its head and returns the closed path head -> ... -> tail -> head.
func reconstructCycle(parents map[string]string, tail, head string) []string {
	segment := []string{tail}
	for current := tail; current != head; {
		current = parents[current]
		segment = append(segment, current)
	}

	path := make([]string, 0, len(segment)+1)
	for i := len(segment) - 1; i >= 0; i-- {
		path = append(path, segment[i])
	}

	return append(path, head)
}
