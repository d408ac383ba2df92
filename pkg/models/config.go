package models

import (
	"encoding/json"
	"fmt"
)

// TransformOperation selects how a Transform node rewrites one field of the
// data record.
type TransformOperation string

const (
	TransformUppercase TransformOperation = "uppercase"
	TransformLowercase TransformOperation = "lowercase"
	TransformAppend    TransformOperation = "append"
	TransformPrepend   TransformOperation = "prepend"
	TransformMultiply  TransformOperation = "multiply"
	TransformAdd       TransformOperation = "add"
	TransformReplace   TransformOperation = "replace"
)

// Valid reports whether the operation is one of the supported transforms.
func (op TransformOperation) Valid() bool {
	switch op {
	case TransformUppercase, TransformLowercase, TransformAppend,
		TransformPrepend, TransformMultiply, TransformAdd, TransformReplace:
		return true
	default:
		return false
	}
}

// TransformOperations returns all transform operations in display order.
func TransformOperations() []TransformOperation {
	return []TransformOperation{
		TransformUppercase, TransformLowercase, TransformAppend,
		TransformPrepend, TransformMultiply, TransformAdd, TransformReplace,
	}
}

// ConditionOperator selects how a Condition node compares one field of the
// data record against its configured operand.
type ConditionOperator string

const (
	ConditionEquals             ConditionOperator = "equals"
	ConditionNotEquals          ConditionOperator = "notEquals"
	ConditionContains           ConditionOperator = "contains"
	ConditionGreaterThan        ConditionOperator = "greaterThan"
	ConditionLessThan           ConditionOperator = "lessThan"
	ConditionGreaterThanOrEqual ConditionOperator = "greaterThanOrEqual"
	ConditionLessThanOrEqual    ConditionOperator = "lessThanOrEqual"
	ConditionIsEmpty            ConditionOperator = "isEmpty"
	ConditionIsNotEmpty         ConditionOperator = "isNotEmpty"
	ConditionIsEven             ConditionOperator = "isEven"
	ConditionIsOdd              ConditionOperator = "isOdd"
	ConditionIsDivisibleBy      ConditionOperator = "isDivisibleBy"
)

// Valid reports whether the operator is one of the supported comparisons.
func (op ConditionOperator) Valid() bool {
	switch op {
	case ConditionEquals, ConditionNotEquals, ConditionContains,
		ConditionGreaterThan, ConditionLessThan, ConditionGreaterThanOrEqual,
		ConditionLessThanOrEqual, ConditionIsEmpty, ConditionIsNotEmpty,
		ConditionIsEven, ConditionIsOdd, ConditionIsDivisibleBy:
		return true
	default:
		return false
	}
}

// ConditionOperators returns all condition operators in display order.
func ConditionOperators() []ConditionOperator {
	return []ConditionOperator{
		ConditionEquals, ConditionNotEquals, ConditionContains,
		ConditionGreaterThan, ConditionLessThan, ConditionGreaterThanOrEqual,
		ConditionLessThanOrEqual, ConditionIsEmpty, ConditionIsNotEmpty,
		ConditionIsEven, ConditionIsOdd, ConditionIsDivisibleBy,
	}
}

// NodeConfig is the kind-specific configuration payload of a node. It is a
// closed sum over the four built-in kinds; decoding dispatches on the node's
// kind discriminator and unknown kinds fail.
type NodeConfig interface {
	// Kind reports which node kind this configuration belongs to.
	Kind() NodeKind
	// Clone returns a deep copy sharing no mutable state with the original.
	Clone() NodeConfig
}

// StartConfig holds the initial data record a Start node injects into the
// graph.
type StartConfig struct {
	Payload map[string]any `json:"payload,omitempty"`
}

func (c *StartConfig) Kind() NodeKind { return NodeKindStart }

func (c *StartConfig) Clone() NodeConfig {
	return &StartConfig{Payload: DeepCopyRecord(c.Payload)}
}

// TransformConfig holds a Transform node's operation, target field and
// optional operand.
type TransformConfig struct {
	Operation TransformOperation `json:"operation"`
	Field     string             `json:"field"`
	Value     any                `json:"value,omitempty"`
}

func (c *TransformConfig) Kind() NodeKind { return NodeKindTransform }

func (c *TransformConfig) Clone() NodeConfig {
	clone := *c
	clone.Value = deepCopyValue(c.Value)

	return &clone
}

// ConditionConfig holds a Condition node's comparison. Value is ignored for
// unary operators.
type ConditionConfig struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    any               `json:"value,omitempty"`
}

func (c *ConditionConfig) Kind() NodeKind { return NodeKindCondition }

func (c *ConditionConfig) Clone() NodeConfig {
	clone := *c
	clone.Value = deepCopyValue(c.Value)

	return &clone
}

// EndConfig marks a terminal node. It carries no execution semantics.
type EndConfig struct {
	Label string `json:"label,omitempty"`
}

func (c *EndConfig) Kind() NodeKind { return NodeKindEnd }

func (c *EndConfig) Clone() NodeConfig {
	clone := *c

	return &clone
}

// UnmarshalConfig decodes a raw config payload into the typed configuration
// for the given node kind. A nil or empty payload yields the kind's zero
// configuration.
func UnmarshalConfig(kind NodeKind, raw json.RawMessage) (NodeConfig, error) {
	var config NodeConfig

	switch kind {
	case NodeKindStart:
		config = &StartConfig{}
	case NodeKindTransform:
		config = &TransformConfig{}
	case NodeKindCondition:
		config = &ConditionConfig{}
	case NodeKindEnd:
		config = &EndConfig{}
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}

	if len(raw) == 0 {
		return config, nil
	}

	err := json.Unmarshal(raw, config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s config: %w", kind, err)
	}

	return config, nil
}
