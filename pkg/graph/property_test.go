package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/testutil"
)

// Any sequence of edge additions that passes ValidateConnection must
// leave the graph acyclic, free of duplicate edges, and with clean
// start/end boundaries.
func TestGatedEdgeAdditionsKeepGraphWellFormed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nodeCount := rapid.IntRange(2, 8).Draw(rt, "nodeCount")
		nodes := make([]*models.Node, 0, nodeCount)

		for i := range nodeCount {
			id := fmt.Sprintf("n%d", i)

			kind := rapid.SampledFrom(models.NodeKinds()).Draw(rt, "kind")
			switch kind {
			case models.NodeKindStart:
				nodes = append(nodes, testutil.StartNode(id, map[string]any{"v": float64(i)}))
			case models.NodeKindTransform:
				nodes = append(nodes, testutil.TransformNode(id, models.TransformUppercase, "v", nil))
			case models.NodeKindCondition:
				nodes = append(nodes, testutil.ConditionNode(id, "v", models.ConditionIsEven, nil))
			case models.NodeKindEnd:
				nodes = append(nodes, testutil.EndNode(id))
			}
		}

		var edges []*models.Edge

		attempts := rapid.IntRange(0, 40).Draw(rt, "attempts")
		for i := range attempts {
			source := rapid.SampledFrom(nodes).Draw(rt, "source")
			target := rapid.SampledFrom(nodes).Draw(rt, "target")

			if err := ValidateConnection(source, target, edges); err != nil {
				continue
			}

			edges = append(edges, testutil.EdgeBetween(fmt.Sprintf("e%d", i), source.ID, target.ID))
		}

		report := DetectCycles(nodes, edges)
		assert.False(rt, report.HasCycle, "gated additions must never close a cycle")

		seen := make(map[string]bool, len(edges))

		for _, edge := range edges {
			pair := edge.Source + "->" + edge.Target
			assert.False(rt, seen[pair], "duplicate edge %s", pair)
			seen[pair] = true

			assert.NotEqual(rt, edge.Source, edge.Target, "self loop %s", pair)
		}

		kinds := make(map[string]models.NodeKind, len(nodes))
		for _, node := range nodes {
			kinds[node.ID] = node.Type
		}

		for _, edge := range edges {
			assert.NotEqual(rt, models.NodeKindEnd, kinds[edge.Source],
				"end node %s must not have outgoing edges", edge.Source)
			assert.NotEqual(rt, models.NodeKindStart, kinds[edge.Target],
				"start node %s must not have incoming edges", edge.Target)
		}
	})
}
