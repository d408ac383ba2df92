package graph

import (
	"fmt"
	"strings"

	"github.com/flowpad/flowpad/pkg/models"
)

// ValidationResult is the outcome of validating a whole workflow graph.
// Errors block execution, warnings do not.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateWorkflow checks a workflow graph for structural problems before
// execution. An empty graph short-circuits with a single error; otherwise
// every check runs and all findings are collected.
func ValidateWorkflow(nodes []*models.Node, edges []*models.Edge) ValidationResult {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if len(nodes) == 0 {
		result.Errors = append(result.Errors, "Workflow is empty. Add nodes to get started.")

		return result
	}

	var starts, ends []*models.Node

	for _, node := range nodes {
		switch node.Type {
		case models.NodeKindStart:
			starts = append(starts, node)
		case models.NodeKindEnd:
			ends = append(ends, node)
		case models.NodeKindTransform, models.NodeKindCondition:
		}
	}

	if len(starts) == 0 {
		result.Errors = append(result.Errors, "Workflow must have at least one Start node")
	}

	if len(ends) == 0 {
		result.Warnings = append(result.Warnings,
			"Workflow has no End node. Execution will stop at the last connected node.")
	}

	if report := DetectCycles(nodes, edges); report.HasCycle {
		result.Errors = append(result.Errors,
			"Workflow contains a cycle: "+formatCyclePath(nodes, report.Path))
	}

	hasIncoming := make(map[string]bool)
	hasOutgoing := make(map[string]bool)

	for _, edge := range edges {
		hasOutgoing[edge.Source] = true
		hasIncoming[edge.Target] = true
	}

	for _, node := range starts {
		if !hasOutgoing[node.ID] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Start node %q has no outgoing connections", node.DisplayName()))
		}
	}

	for _, node := range ends {
		if !hasIncoming[node.ID] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("End node %q has no incoming connections", node.DisplayName()))
		}
	}

	for _, node := range nodes {
		if node.Type == models.NodeKindStart || node.Type == models.NodeKindEnd {
			continue
		}

		in, out := hasIncoming[node.ID], hasOutgoing[node.ID]

		switch {
		case !in && !out:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%q is not connected to the workflow", node.DisplayName()))
		case !in:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%q has no incoming connections", node.DisplayName()))
		case !out:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%q has no outgoing connections", node.DisplayName()))
		}
	}

	for _, node := range starts {
		if !startHasPayload(node) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Start node %q has no payload configured", node.DisplayName()))
		}
	}

	result.Valid = len(result.Errors) == 0

	return result
}

func startHasPayload(node *models.Node) bool {
	config, ok := node.Data.Config.(*models.StartConfig)

	return ok && config.Payload != nil
}

// formatCyclePath renders a cycle as display names joined by arrows, e.g.
// "A -> B -> A".
func formatCyclePath(nodes []*models.Node, path []string) string {
	names := make(map[string]string, len(nodes))
	for _, node := range nodes {
		names[node.ID] = node.DisplayName()
	}

	parts := make([]string, 0, len(path))

	for _, id := range path {
		name, ok := names[id]
		if !ok {
			name = id
		}

		parts = append(parts, name)
	}

	return strings.Join(parts, " -> ")
}
