package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a tagged variable value: string, number, boolean, or absent.
// The session variable bag maps names to Values.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String renders the value for template interpolation. Absent values
// render as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// MarshalJSON emits the native JSON value (null for absent).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a native JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = StringValue(x)
	case float64:
		*v = NumberValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		return fmt.Errorf("unsupported variable value: %T", raw)
	}
	return nil
}

// CopyVars returns a shallow copy of a variable bag. Used for response
// snapshots so callers never alias session state.
func CopyVars(vars map[string]Value) map[string]Value {
	if vars == nil {
		return nil
	}
	out := make(map[string]Value, len(vars))
	for k, val := range vars {
		out[k] = val
	}
	return out
}
