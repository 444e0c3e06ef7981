package equipment

import (
	"encoding/json"
	"math"
	"strings"
)

// Sigil marks a capability key. Only sigil-prefixed keys are capabilities;
// everything else in a record is routing or descriptive metadata.
const Sigil = "@"

// Value-record field names.
const (
	FieldValue       = "value"
	FieldStatus      = "status"
	FieldConstraints = "constraints"
	FieldLowerLimit  = "lowerLimit"
	FieldUpperLimit  = "upperLimit"
	FieldEnumText    = "enumText"
)

// Attributes is the capability map of one entity. Values are either scalars
// or value-records (maps carrying value, status and constraints fields).
//
// Attributes is not safe for concurrent use; Equipment guards its own copy.
type Attributes map[string]any

// IsCapability reports whether key carries the capability sigil.
func IsCapability(key string) bool {
	return len(key) > len(Sigil) && strings.HasPrefix(key, Sigil)
}

// Has reports whether the capability key is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Record returns the value-record stored under key.
func (a Attributes) Record(key string) (map[string]any, bool) {
	rec, ok := a[key].(map[string]any)
	return rec, ok
}

// Value returns the current value for key: the value field of a record,
// or the raw scalar.
func (a Attributes) Value(key string) (any, bool) {
	raw, ok := a[key]
	if !ok {
		return nil, false
	}
	if rec, isRec := raw.(map[string]any); isRec {
		v, has := rec[FieldValue]
		return v, has
	}
	return raw, true
}

// Float returns the numeric value for key.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a.Value(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns the value for key truncated to an integer.
func (a Attributes) Int(key string) (int, bool) {
	f, ok := a.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String returns the string value for key.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a.Value(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool interprets the value for key as a boolean. Numbers are true when
// non-zero.
func (a Attributes) Bool(key string) (bool, bool) {
	v, ok := a.Value(key)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	default:
		if f, isNum := toFloat(v); isNum {
			return f != 0, true
		}
	}
	return false, false
}

// Status returns the status text of the record stored under key.
func (a Attributes) Status(key string) (string, bool) {
	rec, ok := a.Record(key)
	if !ok {
		return "", false
	}
	s, ok := rec[FieldStatus].(string)
	return s, ok
}

// EnumText returns the ordered enumeration labels of the record under key.
func (a Attributes) EnumText(key string) []string {
	rec, ok := a.Record(key)
	if !ok {
		return nil
	}
	return enumTextOf(rec)
}

// Limits returns the lower and upper constraints of the record under key.
func (a Attributes) Limits(key string) (lower, upper float64, ok bool) {
	rec, isRec := a.Record(key)
	if !isRec {
		return 0, 0, false
	}
	constraints, isMap := rec[FieldConstraints].(map[string]any)
	if !isMap {
		return 0, 0, false
	}
	lower, lok := toFloat(constraints[FieldLowerLimit])
	upper, uok := toFloat(constraints[FieldUpperLimit])
	if !lok || !uok {
		return 0, 0, false
	}
	return lower, upper, true
}

// Clone returns a deep copy of the attributes.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return Attributes(deepCopyMap(a))
}

func enumTextOf(rec map[string]any) []string {
	constraints, ok := rec[FieldConstraints].(map[string]any)
	if !ok {
		return nil
	}
	switch list := constraints[FieldEnumText].(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, isStr := item.(string)
			if !isStr {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

// toFloat converts any JSON-ish number to float64.
func toFloat(v any) (float64, bool) {
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
		return f, err == nil
	}
	return 0, false
}

// toIndex converts v to an integral index.
func toIndex(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// normalizeValue returns a deep copy of v with every number as float64
// and every string slice as []any, so pushes and snapshots compare equal
// regardless of how they were decoded.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case Attributes:
		return normalizeValue(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case bool, string, nil:
		return val
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

// normalizeMap is normalizeValue for a top-level map.
func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out, _ := normalizeValue(m).(map[string]any)
	return out
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

// deepCopyValue creates a deep copy of a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyValue(item)
		}
		return cp
	case []string:
		cp := make([]string, len(val))
		copy(cp, val)
		return cp
	default:
		return v
	}
}
