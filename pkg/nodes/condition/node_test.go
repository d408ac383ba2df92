package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpad/flowpad/pkg/models"
)

func evaluate(t *testing.T, config *models.ConditionConfig, input map[string]any) bool {
	t.Helper()

	output, message, err := New(config).Execute(input)
	require.NoError(t, err)

	result, ok := output[models.ConditionResultKey].(bool)
	require.True(t, ok, "output must carry the boolean branch marker")

	if result {
		assert.Contains(t, message, "true")
	} else {
		assert.Contains(t, message, "false")
	}

	return result
}

func TestExecuteOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator models.ConditionOperator
		field    any
		value    any
		want     bool
	}{
		{name: "equals same number", operator: models.ConditionEquals, field: float64(5), value: float64(5), want: true},
		{name: "equals different number", operator: models.ConditionEquals, field: float64(5), value: float64(6), want: false},
		{name: "equals does not coerce strings", operator: models.ConditionEquals, field: float64(5), value: "5", want: false},
		{name: "notEquals", operator: models.ConditionNotEquals, field: "a", value: "b", want: true},
		{name: "notEquals same value", operator: models.ConditionNotEquals, field: "a", value: "a", want: false},
		{name: "contains substring", operator: models.ConditionContains, field: "hello world", value: "lo w", want: true},
		{name: "contains stringifies numbers", operator: models.ConditionContains, field: float64(12345), value: float64(234), want: true},
		{name: "contains missing substring", operator: models.ConditionContains, field: "hello", value: "z", want: false},
		{name: "greaterThan", operator: models.ConditionGreaterThan, field: float64(50), value: float64(25), want: true},
		{name: "greaterThan equal is false", operator: models.ConditionGreaterThan, field: float64(25), value: float64(25), want: false},
		{name: "greaterThan coerces strings", operator: models.ConditionGreaterThan, field: "10", value: float64(5), want: true},
		{name: "greaterThan non-numeric is false", operator: models.ConditionGreaterThan, field: "abc", value: float64(5), want: false},
		{name: "lessThan", operator: models.ConditionLessThan, field: float64(10), value: float64(25), want: true},
		{name: "greaterThanOrEqual at boundary", operator: models.ConditionGreaterThanOrEqual, field: float64(25), value: float64(25), want: true},
		{name: "lessThanOrEqual at boundary", operator: models.ConditionLessThanOrEqual, field: float64(25), value: float64(25), want: true},
		{name: "lessThanOrEqual above boundary", operator: models.ConditionLessThanOrEqual, field: float64(26), value: float64(25), want: false},
		{name: "isEmpty on missing field", operator: models.ConditionIsEmpty, field: nil, want: true},
		{name: "isEmpty on empty string", operator: models.ConditionIsEmpty, field: "", want: true},
		{name: "isEmpty on zero", operator: models.ConditionIsEmpty, field: float64(0), want: true},
		{name: "isEmpty on text", operator: models.ConditionIsEmpty, field: "x", want: false},
		{name: "isNotEmpty on text", operator: models.ConditionIsNotEmpty, field: "x", want: true},
		{name: "isNotEmpty on empty string", operator: models.ConditionIsNotEmpty, field: "", want: false},
		{name: "isEven", operator: models.ConditionIsEven, field: float64(4), want: true},
		{name: "isEven on odd number", operator: models.ConditionIsEven, field: float64(5), want: false},
		{name: "isEven does not coerce strings", operator: models.ConditionIsEven, field: "4", want: false},
		{name: "isEven on fraction", operator: models.ConditionIsEven, field: float64(2.5), want: false},
		{name: "isOdd", operator: models.ConditionIsOdd, field: float64(5), want: true},
		{name: "isOdd on negative number", operator: models.ConditionIsOdd, field: float64(-3), want: true},
		{name: "isOdd on fraction", operator: models.ConditionIsOdd, field: float64(2.5), want: false},
		{name: "isDivisibleBy", operator: models.ConditionIsDivisibleBy, field: float64(15), value: float64(5), want: true},
		{name: "isDivisibleBy with remainder", operator: models.ConditionIsDivisibleBy, field: float64(16), value: float64(5), want: false},
		{name: "isDivisibleBy zero divisor", operator: models.ConditionIsDivisibleBy, field: float64(15), value: float64(0), want: false},
		{name: "isDivisibleBy string divisor coerces", operator: models.ConditionIsDivisibleBy, field: float64(15), value: "3", want: true},
		{name: "isDivisibleBy non-numeric field", operator: models.ConditionIsDivisibleBy, field: "15", value: float64(5), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &models.ConditionConfig{Field: "value", Operator: tt.operator, Value: tt.value}

			input := map[string]any{}
			if tt.field != nil {
				input["value"] = tt.field
			}

			assert.Equal(t, tt.want, evaluate(t, config, input))
		})
	}
}

func TestExecuteKeepsInputFields(t *testing.T) {
	config := &models.ConditionConfig{Field: "value", Operator: models.ConditionGreaterThan, Value: float64(25)}
	input := map[string]any{"value": float64(50), "message": "hi"}

	output, _, err := New(config).Execute(input)

	require.NoError(t, err)
	assert.Equal(t, float64(50), output["value"])
	assert.Equal(t, "hi", output["message"])
	assert.Equal(t, true, output[models.ConditionResultKey])

	_, leaked := input[models.ConditionResultKey]
	assert.False(t, leaked, "input record must stay untouched")
}

func TestExecuteUnknownOperator(t *testing.T) {
	config := &models.ConditionConfig{Field: "value", Operator: "matches"}

	_, _, err := New(config).Execute(map[string]any{"value": float64(1)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown condition operator")
}

func TestNewNilConfigDoesNotPanic(t *testing.T) {
	node := New(nil)

	_, _, err := node.Execute(map[string]any{})
	assert.Error(t, err)
}
