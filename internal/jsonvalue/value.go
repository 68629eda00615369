// Package jsonvalue provides an in-memory, order-preserving JSON value
// model used by the object/array host types registered against the
// grammar (internal/airline). Unlike a bare map[string]interface{}, it
// keeps object field order stable so an evaluated host type's string
// form and any serialized output are reproducible run to run.
//
// Values are parsed from raw JSON with tidwall/gjson rather than
// encoding/json: gjson's Result walks the source without an
// intermediate interface{} tree, which matters here since facts JSON
// can describe an entire scenario's worth of objects and arrays in one
// CLI invocation.
package jsonvalue

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Kind discriminates the dynamic type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindObject
	KindArray
	KindString
	KindNumber
	KindInt64
	KindBoolean
)

// String returns a human-readable form of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindNull:
		return "Null"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindInt64:
		return "Int64"
	case KindBoolean:
		return "Boolean"
	default:
		return "Unknown"
	}
}

// Value is a JSON value in memory. Like the host model it is adapted
// from, it avoids a bare interface{} payload so the object/array host
// types (internal/airline) can switch on Kind rather than type-assert.
type Value struct {
	kind Kind

	objEntries map[string]*Value
	objKeys    []string // insertion order

	arrElems []*Value

	str  string
	num  float64
	i64  int64
	bool bool
}

// Kind returns the kind of the value; a nil receiver is Undefined.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindUndefined
	}
	return v.kind
}

func NewUndefined() *Value   { return &Value{kind: KindUndefined} }
func NewNull() *Value        { return &Value{kind: KindNull} }
func NewBoolean(b bool) *Value { return &Value{kind: KindBoolean, bool: b} }
func NewNumber(n float64) *Value { return &Value{kind: KindNumber, num: n} }
func NewInt64(n int64) *Value  { return &Value{kind: KindInt64, i64: n} }
func NewString(s string) *Value { return &Value{kind: KindString, str: s} }

// NewArray returns an empty JSON array value.
func NewArray() *Value {
	return &Value{kind: KindArray, arrElems: make([]*Value, 0)}
}

// NewObject returns an empty JSON object value.
func NewObject() *Value {
	return &Value{kind: KindObject, objEntries: make(map[string]*Value), objKeys: make([]string, 0)}
}

// ObjectGet returns the value bound to key, or nil if absent or the
// receiver is not an object.
func (v *Value) ObjectGet(key string) *Value {
	if v == nil || v.kind != KindObject {
		return nil
	}
	return v.objEntries[key]
}

// ObjectSet binds key to child, preserving insertion order for a
// previously-unseen key.
func (v *Value) ObjectSet(key string, child *Value) {
	if v == nil || v.kind != KindObject {
		return
	}
	if _, exists := v.objEntries[key]; !exists {
		v.objKeys = append(v.objKeys, key)
	}
	v.objEntries[key] = child
}

// ObjectKeys returns the object's keys in insertion order.
func (v *Value) ObjectKeys() []string {
	if v == nil || v.kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.objKeys))
	copy(keys, v.objKeys)
	return keys
}

// ArrayLen returns the number of elements, or zero if not an array.
func (v *Value) ArrayLen() int {
	if v == nil || v.kind != KindArray {
		return 0
	}
	return len(v.arrElems)
}

// ArrayGet returns the element at index, or nil if out of range.
func (v *Value) ArrayGet(index int) *Value {
	if v == nil || v.kind != KindArray || index < 0 || index >= len(v.arrElems) {
		return nil
	}
	return v.arrElems[index]
}

// ArrayAppend appends child to the array.
func (v *Value) ArrayAppend(child *Value) {
	if v == nil || v.kind != KindArray {
		return
	}
	v.arrElems = append(v.arrElems, child)
}

// ArrayElements returns a shallow copy of the element slice, safe for
// the iterable package's sliceIterator to range over without aliasing
// this Value's backing array.
func (v *Value) ArrayElements() []*Value {
	if v == nil || v.kind != KindArray {
		return nil
	}
	elems := make([]*Value, len(v.arrElems))
	copy(elems, v.arrElems)
	return elems
}

// BoolValue returns the boolean payload, or false if not KindBoolean.
func (v *Value) BoolValue() bool {
	if v == nil || v.kind != KindBoolean {
		return false
	}
	return v.bool
}

// StringValue returns the string payload, or "" if not KindString.
func (v *Value) StringValue() string {
	if v == nil || v.kind != KindString {
		return ""
	}
	return v.str
}

// NumberValue returns the float64 payload, or 0 if not KindNumber.
func (v *Value) NumberValue() float64 {
	if v == nil || v.kind != KindNumber {
		return 0
	}
	return v.num
}

// Int64Value returns the int64 payload, or 0 if not KindInt64.
func (v *Value) Int64Value() int64 {
	if v == nil || v.kind != KindInt64 {
		return 0
	}
	return v.i64
}

// Parse decodes raw JSON text into a Value tree via gjson, preserving
// object key order by walking gjson.Result.ForEach (which visits
// object members in source order) rather than relying on gjson's own
// map-valued accessors.
func Parse(raw string) (*Value, error) {
	if !gjson.Valid(raw) {
		return nil, &ParseError{Message: "invalid JSON"}
	}
	return fromResult(gjson.Parse(raw)), nil
}

// ParseError reports malformed JSON input to Parse.
type ParseError struct{ Message string }

func (e *ParseError) Error() string { return "jsonvalue: " + e.Message }

func fromResult(r gjson.Result) *Value {
	switch r.Type {
	case gjson.Null:
		return NewNull()
	case gjson.True:
		return NewBoolean(true)
	case gjson.False:
		return NewBoolean(false)
	case gjson.String:
		return NewString(r.Str)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) && !containsFloatMarkers(r.Raw) {
			return NewInt64(int64(r.Num))
		}
		return NewNumber(r.Num)
	case gjson.JSON:
		if r.IsArray() {
			arr := NewArray()
			r.ForEach(func(_, elem gjson.Result) bool {
				arr.ArrayAppend(fromResult(elem))
				return true
			})
			return arr
		}
		obj := NewObject()
		r.ForEach(func(key, val gjson.Result) bool {
			obj.ObjectSet(key.Str, fromResult(val))
			return true
		})
		return obj
	default:
		return NewUndefined()
	}
}

// containsFloatMarkers reports whether raw's literal JSON number text
// carries a decimal point or exponent, so `5.0` round-trips as a
// Number rather than silently narrowing to Int64 the way a bare
// float64 equality check against r.Num would.
func containsFloatMarkers(raw string) bool {
	for _, c := range raw {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

// MarshalJSON implements json.Marshaler, walking the value recursively
// with sjson.SetRaw so object field order is preserved in the output
// (sjson appends new keys rather than reordering into a Go map, unlike
// plain encoding/json.Marshal on a map[string]any).
func (v *Value) MarshalJSON() ([]byte, error) {
	raw, err := v.marshalRaw()
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

func (v *Value) marshalRaw() (string, error) {
	if v == nil {
		return "null", nil
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return "null", nil
	case KindBoolean:
		if v.bool {
			return "true", nil
		}
		return "false", nil
	case KindInt64:
		return strconv.FormatInt(v.i64, 10), nil
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64), nil
	case KindString:
		raw, err := json.Marshal(v.str)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case KindArray:
		out := "[]"
		var err error
		for i, elem := range v.arrElems {
			raw, e := elem.marshalRaw()
			if e != nil {
				return "", e
			}
			out, err = sjson.SetRaw(out, strconv.Itoa(i), raw)
			if err != nil {
				return "", err
			}
		}
		return out, nil
	case KindObject:
		out := "{}"
		var err error
		for _, key := range v.objKeys {
			raw, e := v.objEntries[key].marshalRaw()
			if e != nil {
				return "", e
			}
			out, err = sjson.SetRaw(out, sjsonEscapeKey(key), raw)
			if err != nil {
				return "", err
			}
		}
		return out, nil
	default:
		return "null", nil
	}
}

// sjsonEscapeKey escapes path-metacharacters (`.`, `*`, `?`) sjson
// would otherwise interpret as path syntax in a plain field name.
func sjsonEscapeKey(key string) string {
	needsEscape := false
	for _, c := range key {
		if c == '.' || c == '*' || c == '?' {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return key
	}
	escaped := make([]byte, 0, len(key)+4)
	for _, c := range key {
		if c == '.' || c == '*' || c == '?' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, byte(c))
	}
	return string(escaped)
}
