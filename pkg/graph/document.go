package graph

import (
	"encoding/json"
	"fmt"

	"github.com/flowpad/flowpad/pkg/models"
)

// ConfigValidator checks a node config object against the rules for its
// kind. The registry package provides the canonical implementation.
type ConfigValidator interface {
	ValidateConfig(kind models.NodeKind, config map[string]any) error
}

// ParseDocument validates and decodes a serialized workflow document.
// Every structural problem is collected rather than stopping at the
// first, and the import is all-or-nothing: a document with any problem
// yields a nil document and the full list of findings. A nil configs
// validator skips per-node config validation.
func ParseDocument(data []byte, configs ConfigValidator) (*models.WorkflowDocument, []string) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, []string{"Invalid JSON: " + err.Error()}
	}

	rootObj, ok := root.(map[string]any)
	if !ok {
		return nil, []string{"Workflow file must be a JSON object"}
	}

	var problems []string

	nodeIDs := checkNodes(rootObj, configs, &problems)
	checkEdges(rootObj, nodeIDs, &problems)
	checkViewport(rootObj, &problems)

	if len(problems) > 0 {
		return nil, problems
	}

	doc := &models.WorkflowDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, []string{"Invalid workflow file: " + err.Error()}
	}

	if doc.Nodes == nil {
		doc.Nodes = []*models.Node{}
	}

	if doc.Edges == nil {
		doc.Edges = []*models.Edge{}
	}

	return doc, nil
}

// checkNodes validates the nodes array and returns the set of declared
// node IDs so edges can be checked against it even when some nodes are
// malformed.
func checkNodes(root map[string]any, configs ConfigValidator, problems *[]string) map[string]bool {
	nodeIDs := make(map[string]bool)

	rawNodes, ok := root["nodes"].([]any)
	if !ok {
		*problems = append(*problems, "Workflow file must contain a nodes array")

		return nodeIDs
	}

	for i, rawNode := range rawNodes {
		node, ok := rawNode.(map[string]any)
		if !ok {
			*problems = append(*problems, fmt.Sprintf("Node at index %d is not an object", i))

			continue
		}

		id, _ := node["id"].(string)
		label := fmt.Sprintf("Node at index %d", i)

		if id == "" {
			*problems = append(*problems, label+" has no id")
		} else {
			label = fmt.Sprintf("Node %q", id)

			if nodeIDs[id] {
				*problems = append(*problems, fmt.Sprintf("Duplicate node id %q", id))
			}

			nodeIDs[id] = true
		}

		kindStr, _ := node["type"].(string)
		kind := models.NodeKind(kindStr)

		if !kind.Valid() {
			*problems = append(*problems, fmt.Sprintf("%s has an invalid type %q", label, kindStr))
		}

		if !validPosition(node["position"]) {
			*problems = append(*problems, label+" has an invalid position")
		}

		checkNodeData(node["data"], kind, label, configs, problems)
	}

	return nodeIDs
}

func checkNodeData(rawData any, kind models.NodeKind, label string, configs ConfigValidator, problems *[]string) {
	data, ok := rawData.(map[string]any)
	if !ok {
		*problems = append(*problems, label+" has no data object")

		return
	}

	nodeType, _ := data["nodeType"].(string)

	switch {
	case nodeType == "":
		*problems = append(*problems, label+" has no nodeType in its data")
	case kind.Valid() && models.NodeKind(nodeType) != kind:
		*problems = append(*problems,
			fmt.Sprintf("%s has type %q but nodeType %q", label, kind, nodeType))
	}

	rawConfig, present := data["config"]
	if !present || configs == nil || !kind.Valid() {
		return
	}

	config, ok := rawConfig.(map[string]any)
	if !ok {
		*problems = append(*problems, label+" has an invalid config")

		return
	}

	if err := configs.ValidateConfig(kind, config); err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %s", label, err.Error()))
	}
}

func checkEdges(root map[string]any, nodeIDs map[string]bool, problems *[]string) {
	rawEdges, ok := root["edges"].([]any)
	if !ok {
		*problems = append(*problems, "Workflow file must contain an edges array")

		return
	}

	for i, rawEdge := range rawEdges {
		edge, ok := rawEdge.(map[string]any)
		if !ok {
			*problems = append(*problems, fmt.Sprintf("Edge at index %d is not an object", i))

			continue
		}

		id, _ := edge["id"].(string)
		label := fmt.Sprintf("Edge at index %d", i)

		if id == "" {
			*problems = append(*problems, label+" has no id")
		} else {
			label = fmt.Sprintf("Edge %q", id)
		}

		for _, field := range []string{"source", "target"} {
			ref, _ := edge[field].(string)

			switch {
			case ref == "":
				*problems = append(*problems, fmt.Sprintf("%s has no %s", label, field))
			case !nodeIDs[ref]:
				*problems = append(*problems,
					fmt.Sprintf("%s references missing node %q", label, ref))
			}
		}

		for _, field := range []string{"sourceHandle", "targetHandle"} {
			if handle, present := edge[field]; present {
				if _, ok := handle.(string); !ok {
					*problems = append(*problems, fmt.Sprintf("%s has an invalid %s", label, field))
				}
			}
		}
	}
}

func checkViewport(root map[string]any, problems *[]string) {
	rawViewport, present := root["viewport"]
	if !present || rawViewport == nil {
		return
	}

	viewport, ok := rawViewport.(map[string]any)
	if !ok {
		*problems = append(*problems, "Viewport must be an object")

		return
	}

	for _, field := range []string{"x", "y", "zoom"} {
		if _, ok := viewport[field].(float64); !ok {
			*problems = append(*problems, fmt.Sprintf("Viewport has an invalid %s", field))
		}
	}
}

func validPosition(raw any) bool {
	position, ok := raw.(map[string]any)
	if !ok {
		return false
	}

	_, xOK := position["x"].(float64)
	_, yOK := position["y"].(float64)

	return xOK && yOK
}
