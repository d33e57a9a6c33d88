package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is one stored record. Field values are whatever a JSON decoder
// produces, plus Go ints written by this process.
type Value map[string]any

// Clone deep copies maps and slices.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	for k, field := range v {
		out[k] = cloneAny(field)
	}
	return out
}

func cloneAny(x any) any {
	switch t := x.(type) {
	case Value:
		return t.Clone()
	case map[string]any:
		return map[string]any(Value(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneAny(t[i])
		}
		return out
	default:
		return t
	}
}

// Has reports whether field is present and non-nil.
func (v Value) Has(field string) bool {
	x, ok := v[field]
	return ok && x != nil
}

// String returns the field as a string. Numbers and booleans are formatted;
// anything else yields "".
func (v Value) String(field string) string {
	switch t := v[field].(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Int returns the field as an integer. Numeric strings are accepted.
func (v Value) Int(field string) (int64, bool) {
	return ToInt(v[field])
}

// Bool returns the field as a boolean, false when absent.
func (v Value) Bool(field string) bool {
	switch t := v[field].(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		return false
	}
}

// ToInt converts JSON numbers, Go integers and numeric strings.
func ToInt(x any) (int64, bool) {
	switch t := x.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// Encode marshals v for backends that persist bytes.
func Encode(v Value) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}

// Decode unmarshals bytes written by Encode.
func Decode(b []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
