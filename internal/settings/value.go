package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind enumerates the shapes a setting value can take.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is a JSON-shaped setting value. The zero value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

func Null() Value                    { return Value{} }
func Bool(b bool) Value              { return Value{kind: KindBool, b: b} }
func Number(n float64) Value         { return Value{kind: KindNumber, n: n} }
func String(s string) Value          { return Value{kind: KindString, s: s} }
func List(items ...Value) Value      { return Value{kind: KindList, list: items} }
func MapOf(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// FromAny converts decoded JSON (or loosely typed Go values) into a Value.
// Unsupported types collapse to their fmt representation.
func FromAny(input any) Value {
	switch v := input.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return String(v.String())
		}
		return Number(f)
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = FromAny(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = String(item)
		}
		return List(items...)
	case map[string]any:
		m := make(map[string]Value, len(v))
		for key, item := range v {
			m[key] = FromAny(item)
		}
		return MapOf(m)
	case Map:
		return MapOf(v.clone())
	default:
		return String(fmt.Sprint(v))
	}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsScalar() bool { return v.kind == KindBool || v.kind == KindNumber || v.kind == KindString }

// AsBool reports the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber reports the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString reports the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList reports the list payload.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap reports the map payload.
func (v Value) AsMap() (Map, bool) { return Map(v.m), v.kind == KindMap }

// Interface projects the value into plain Go types for template engines.
// Integral numbers become int so they print without a fraction.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1<<53 {
			return int(v.n)
		}
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		return Map(v.m).Template()
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindNull:
		return ""
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for key, item := range v.m {
			o, ok := other.m[key]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Null()
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Map is a settings map keyed by setting id.
type Map map[string]Value

// FromMap converts a loosely typed map.
func FromMap(input map[string]any) Map {
	if input == nil {
		return Map{}
	}
	out := make(Map, len(input))
	for key, value := range input {
		out[key] = FromAny(value)
	}
	return out
}

// Get returns the value stored under id.
func (m Map) Get(id string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m[id]
	return v, ok
}

// Template projects the map for template engines.
func (m Map) Template() map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = value.Interface()
	}
	return out
}

func (m Map) clone() map[string]Value {
	out := make(map[string]Value, len(m))
	for key, value := range m {
		out[key] = value
	}
	return out
}
