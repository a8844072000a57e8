// Package value implements phlow's dynamic value tree: the tagged union that
// flows through scripts, contexts, module calls and the wire protocol.
package value

import "fmt"

// Kind tags the shape currently held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is phlow's dynamic, JSON/YAML-roundtrippable tree. The zero Value is
// null. Object keys preserve declaration order.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Object
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a slice of Values. The slice is taken by reference, not copied.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// FromObject wraps an *Object.
func FromObject(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind reports the Value's current shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload, or false if v is not a bool.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload, or 0 if v is not an int.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. Ints widen transparently.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Str returns the string payload, or "" if v is not a string.
func (v Value) Str() string { return v.s }

// Arr returns the array payload, or nil if v is not an array.
func (v Value) Arr() []Value { return v.arr }

// Obj returns the object payload, or nil if v is not an object.
func (v Value) Obj() *Object { return v.obj }

// Truthy implements phlow's truthiness rule: null and false are falsy,
// numeric zero is falsy, empty string/array/object are falsy, everything
// else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj != nil && v.obj.Len() > 0
	default:
		return false
	}
}

// Native converts a Value into a plain Go interface{} tree (map[string]any,
// []any, string, int64, float64, bool, nil), suitable for handing to an
// expression evaluator.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Native()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, v.obj.Len())
		for _, k := range v.obj.Keys() {
			val, _ := v.obj.Get(k)
			out[k] = val.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative converts a plain Go interface{} tree (as produced by
// encoding/json or module RPC responses) into a Value.
func FromNative(in interface{}) Value {
	switch t := in.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromNative(e)
		}
		return Array(items)
	case map[string]interface{}:
		obj := NewObject()
		for _, k := range sortedKeysFallback(t) {
			obj.Set(k, FromNative(t[k]))
		}
		return FromObject(obj)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// sortedKeysFallback is used only when converting from a map[string]interface{}
// whose key order was already lost (e.g. produced by encoding/json decoding
// into interface{}); it sorts lexically to give deterministic output.
func sortedKeysFallback(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// simple insertion sort; these maps are small (module RPC payloads)
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
