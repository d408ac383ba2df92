// Package transform implements the field rewriting node. Each operation
// targets a single field of the data record and applies only when the
// current value has the type the operation expects; mismatches leave the
// record untouched rather than failing the run.
package transform

import (
	"fmt"
	"strings"

	"github.com/flowpad/flowpad/pkg/models"
)

// Node is the transform node executor.
type Node struct {
	config *models.TransformConfig
}

// New creates a transform node executor for the given config.
func New(config *models.TransformConfig) *Node {
	if config == nil {
		config = &models.TransformConfig{}
	}

	return &Node{config: config}
}

// Execute returns a copy of input with the configured field rewritten.
func (n *Node) Execute(input map[string]any) (map[string]any, string, error) {
	output := models.CopyRecord(input)
	field := n.config.Field
	current := output[field]

	switch n.config.Operation {
	case models.TransformUppercase:
		if text, ok := current.(string); ok {
			output[field] = strings.ToUpper(text)
		}
	case models.TransformLowercase:
		if text, ok := current.(string); ok {
			output[field] = strings.ToLower(text)
		}
	case models.TransformAppend:
		if text, ok := current.(string); ok {
			output[field] = text + models.Stringify(n.config.Value)
		}
	case models.TransformPrepend:
		if text, ok := current.(string); ok {
			output[field] = models.Stringify(n.config.Value) + text
		}
	case models.TransformMultiply:
		if number, ok := models.NumberOf(current); ok {
			output[field] = number * operand(n.config.Value, 1)
		}
	case models.TransformAdd:
		if number, ok := models.NumberOf(current); ok {
			output[field] = number + operand(n.config.Value, 0)
		}
	case models.TransformReplace:
		output[field] = n.config.Value
	default:
		return nil, "", fmt.Errorf("unknown transform operation %q", n.config.Operation)
	}

	message := fmt.Sprintf("Applied %s to %q", n.config.Operation, field)

	return output, message, nil
}

// operand coerces the configured operand to a number, falling back when
// it is absent or not numeric.
func operand(value any, fallback float64) float64 {
	if number, ok := models.CoerceNumber(value); ok {
		return number
	}

	return fallback
}
