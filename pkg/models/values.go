package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record values cross the JSON boundary, so the helpers below normalize the
// handful of dynamic types a data record can carry: JSON numbers (float64),
// Go integers from programmatic callers, json.Number, strings and booleans.

// NumberOf returns the numeric value of v without coercion. ok is false for
// anything that is not already a number.
func NumberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// CoerceNumber converts v to a number the way dynamic comparison operands
// are coerced: numbers pass through, numeric strings parse, booleans map to
// 0 and 1. ok is false when v has no numeric reading.
func CoerceNumber(v any) (float64, bool) {
	if n, ok := NumberOf(v); ok {
		return n, true
	}

	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	case bool:
		if t {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

// Stringify renders v for string operations (contains, concatenation).
// Numbers drop a trailing ".0"; nil renders empty.
func Stringify(v any) string {
	if v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		if n, ok := NumberOf(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}

		return fmt.Sprintf("%v", t)
	}
}

// IsFalsy reports whether v is empty in the loose sense used by the
// isEmpty operator: nil, false, the empty string, zero, or NaN.
func IsFalsy(v any) bool {
	if v == nil {
		return true
	}

	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return t == ""
	default:
		if n, ok := NumberOf(v); ok {
			return n == 0 || math.IsNaN(n)
		}

		return false
	}
}

// StrictEqual compares two record values without coercion: values of
// different shapes are unequal, numbers compare by value regardless of the
// concrete numeric type, and composite values never compare equal.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	an, aNum := NumberOf(a)
	bn, bNum := NumberOf(b)

	if aNum || bNum {
		return aNum && bNum && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)

		return ok && av == bv
	case bool:
		bv, ok := b.(bool)

		return ok && av == bv
	default:
		return false
	}
}

// CopyRecord returns a top-level copy of a data record. Nested values stay
// shared, matching the shallow-copy semantics node execution uses.
func CopyRecord(record map[string]any) map[string]any {
	copied := make(map[string]any, len(record))
	for key, value := range record {
		copied[key] = value
	}

	return copied
}

// DeepCopyRecord returns a fully independent copy of a data record,
// recursing into nested objects and arrays. Used at snapshot and config
// boundaries where no aliasing may survive.
func DeepCopyRecord(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}

	copied := make(map[string]any, len(record))
	for key, value := range record {
		copied[key] = deepCopyValue(value)
	}

	return copied
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return DeepCopyRecord(v)
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = deepCopyValue(item)
		}

		return copied
	default:
		return v
	}
}
