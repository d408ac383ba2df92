// Package condition implements the branching node. It evaluates a single
// comparison against one field of the data record and records the boolean
// outcome so the executor can select the matching branch.
package condition

import (
	"fmt"
	"math"
	"strings"

	"github.com/flowpad/flowpad/pkg/models"
)

// Node is the condition node executor.
type Node struct {
	config *models.ConditionConfig
}

// New creates a condition node executor for the given config.
func New(config *models.ConditionConfig) *Node {
	if config == nil {
		config = &models.ConditionConfig{}
	}

	return &Node{config: config}
}

// Execute evaluates the configured comparison and returns a copy of input
// with the outcome stored under models.ConditionResultKey.
func (n *Node) Execute(input map[string]any) (map[string]any, string, error) {
	current := input[n.config.Field]

	result, err := n.evaluate(current)
	if err != nil {
		return nil, "", err
	}

	output := models.CopyRecord(input)
	output[models.ConditionResultKey] = result

	return output, fmt.Sprintf("Condition evaluated to %t", result), nil
}

func (n *Node) evaluate(current any) (bool, error) {
	expected := n.config.Value

	switch n.config.Operator {
	case models.ConditionEquals:
		return models.StrictEqual(current, expected), nil
	case models.ConditionNotEquals:
		return !models.StrictEqual(current, expected), nil
	case models.ConditionContains:
		return strings.Contains(models.Stringify(current), models.Stringify(expected)), nil
	case models.ConditionGreaterThan:
		return compareNumbers(current, expected, func(a, b float64) bool { return a > b }), nil
	case models.ConditionLessThan:
		return compareNumbers(current, expected, func(a, b float64) bool { return a < b }), nil
	case models.ConditionGreaterThanOrEqual:
		return compareNumbers(current, expected, func(a, b float64) bool { return a >= b }), nil
	case models.ConditionLessThanOrEqual:
		return compareNumbers(current, expected, func(a, b float64) bool { return a <= b }), nil
	case models.ConditionIsEmpty:
		return models.IsFalsy(current), nil
	case models.ConditionIsNotEmpty:
		return !models.IsFalsy(current), nil
	case models.ConditionIsEven:
		return parity(current, 0), nil
	case models.ConditionIsOdd:
		return parity(current, 1), nil
	case models.ConditionIsDivisibleBy:
		return divisible(current, expected), nil
	default:
		return false, fmt.Errorf("unknown condition operator %q", n.config.Operator)
	}
}

// compareNumbers coerces both sides to numbers and applies cmp. A side
// that cannot be coerced makes the comparison false.
func compareNumbers(current, expected any, cmp func(a, b float64) bool) bool {
	a, okA := models.CoerceNumber(current)
	b, okB := models.CoerceNumber(expected)

	return okA && okB && cmp(a, b)
}

// parity checks numeric parity. Only values that are already numbers
// qualify; fractional values are neither even nor odd.
func parity(current any, remainder float64) bool {
	number, ok := models.NumberOf(current)
	if !ok {
		return false
	}

	return math.Abs(math.Mod(number, 2)) == remainder
}

func divisible(current, divisorValue any) bool {
	number, ok := models.NumberOf(current)
	if !ok {
		return false
	}

	divisor, ok := models.CoerceNumber(divisorValue)
	if !ok || divisor == 0 {
		return false
	}

	return math.Mod(number, divisor) == 0
}
