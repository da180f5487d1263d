package types

import (
	"github.com/goccy/go-json"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// ScalarType - the element types a collection may carry.
type ScalarType int

const (
	ScalarBool ScalarType = iota
	ScalarInt
	ScalarFloat
	ScalarString
)

// String - renders the type the way the query language spells it.
func (t ScalarType) String() string {
	switch t {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarString:
		return "str"
	}

	return "unknown"
}

// MarshalJSON - encodes the type as its query-language word.
func (t ScalarType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// KeyType - the types a map key may carry. Floats are excluded so key
// equality never depends on float identity.
type KeyType int

const (
	KeyString KeyType = iota
	KeyInt
)

// String - renders the key type the way the query language spells it.
func (t KeyType) String() string {
	switch t {
	case KeyString:
		return "str"
	case KeyInt:
		return "int"
	}

	return "unknown"
}

// MarshalJSON - encodes the key type as its query-language word.
func (t KeyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Scalar - converts a key type to the matching scalar type.
func (t KeyType) Scalar() ScalarType {
	if t == KeyInt {
		return ScalarInt
	}

	return ScalarString
}

// Kind - discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector
	KindMap
)

// String - human-readable kind name, used in type errors.
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
		return "str"
	case KindVector:
		return "vec"
	case KindMap:
		return "map"
	}

	return "unknown"
}

// Value - a tagged union over every storable type. Scalars are held inline;
// collections are held by pointer and owned wholesale by the containing
// entry. The zero Value is Null.
//
// Value is comparable, but only Bool, Int and String values are legal map
// keys; Float equality is IEEE == on float32 (NaN is unequal to itself), which
// the key-type rules keep out of any map.
type Value struct {
	kind Kind

	b   bool
	i   int64
	f   float32
	s   string
	vec *Vector
	m   *Map
}

// Null - the present-but-empty value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool - a boolean scalar.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int - an integer scalar.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float - a floating-point scalar.
func Float(f float32) Value {
	return Value{kind: KindFloat, f: f}
}

// String - a string scalar.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// VectorValue - wraps a typed vector.
func VectorValue(v *Vector) Value {
	return Value{kind: KindVector, vec: v}
}

// MapValue - wraps a typed map.
func MapValue(m *Map) Value {
	return Value{kind: KindMap, m: m}
}

// Kind - the discriminant of this value.
func (v Value) Kind() Kind {
	return v.kind
}

// BoolValue - the boolean payload; valid only for KindBool.
func (v Value) BoolValue() bool { return v.b }

// IntValue - the integer payload; valid only for KindInt.
func (v Value) IntValue() int64 { return v.i }

// FloatValue - the float payload; valid only for KindFloat.
func (v Value) FloatValue() float32 { return v.f }

// StringValue - the string payload; valid only for KindString.
func (v Value) StringValue() string { return v.s }

// Vector - the vector payload; nil unless KindVector.
func (v Value) Vector() *Vector { return v.vec }

// Map - the map payload; nil unless KindMap.
func (v Value) Map() *Map { return v.m }

// IsScalarOf - reports whether this value is a scalar of the given type.
func (v Value) IsScalarOf(t ScalarType) bool {
	switch v.kind {
	case KindBool:
		return t == ScalarBool
	case KindInt:
		return t == ScalarInt
	case KindFloat:
		return t == ScalarFloat
	case KindString:
		return t == ScalarString
	}

	return false
}

// Clone - deep-copies the value. Scalars copy trivially; collections copy
// their backing storage so the result is safe to hand to another goroutine.
func (v Value) Clone() Value {
	switch v.kind {
	case KindVector:
		return VectorValue(v.vec.Clone())
	case KindMap:
		return MapValue(v.m.Clone())
	}

	return v
}

// TypeDesc - describes the value for the `type` statement.
func (v Value) TypeDesc() TypeDesc {
	desc := TypeDesc{Kind: v.kind}
	switch v.kind {
	case KindVector:
		desc.Elem = v.vec.ElemType()
	case KindMap:
		desc.Key = v.m.KeyType()
		desc.Elem = v.m.ElemType()
	}

	return desc
}

// MarshalJSON - tagged-variant encoding: "Null" for the unit variant,
// single-key objects for everything else.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return json.Marshal("Null")
	case KindBool:
		return json.Marshal(map[string]bool{"Bool": v.b})
	case KindInt:
		return json.Marshal(map[string]int64{"Int": v.i})
	case KindFloat:
		return json.Marshal(map[string]float32{"Float": v.f})
	case KindString:
		return json.Marshal(map[string]string{"String": v.s})
	case KindVector:
		return json.Marshal(map[string]*Vector{"Vector": v.vec})
	case KindMap:
		return json.Marshal(map[string]*Map{"Map": v.m})
	}

	return nil, models.InternalErrorf("unencodable value kind %d", v.kind)
}

// TypeDesc - the payload of a `type` response: the kind plus the element
// and key types when the value is a collection.
type TypeDesc struct {
	Kind Kind
	Elem ScalarType
	Key  KeyType
}

// MarshalJSON - unit kinds encode as bare strings, collections as
// single-key objects carrying their type parameters.
func (d TypeDesc) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindNull:
		return json.Marshal("Null")
	case KindBool:
		return json.Marshal("Bool")
	case KindInt:
		return json.Marshal("Int")
	case KindFloat:
		return json.Marshal("Float")
	case KindString:
		return json.Marshal("String")
	case KindVector:
		return json.Marshal(map[string]ScalarType{"Vector": d.Elem})
	case KindMap:
		return json.Marshal(map[string][2]string{
			"Map": {d.Key.String(), d.Elem.String()},
		})
	}

	return nil, models.InternalErrorf("unencodable type descriptor kind %d", d.Kind)
}
