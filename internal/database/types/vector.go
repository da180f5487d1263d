package types

import (
	"github.com/goccy/go-json"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// Vector - an ordered homogeneous collection. The element type lives on the
// container, so writes validate in O(1) and the representation stays
// compact.
type Vector struct {
	elemType ScalarType
	items    []Value
}

// NewVector - creates an empty vector of the given element type.
func NewVector(elemType ScalarType) *Vector {
	return &Vector{elemType: elemType}
}

// ElemType - the declared element type.
func (v *Vector) ElemType() ScalarType {
	return v.elemType
}

// Len - the number of elements.
func (v *Vector) Len() int {
	return len(v.items)
}

// Get - returns the element at index i.
func (v *Vector) Get(i int) (Value, error) {
	if i >= len(v.items) {
		return Value{}, models.IndexErrorf("index %d out of range for vector of length %d", i, len(v.items))
	}

	return v.items[i], nil
}

// Push - appends a value, validating it against the element type.
func (v *Vector) Push(value Value) error {
	if !value.IsScalarOf(v.elemType) {
		return models.TypeErrorf("cannot push %s value into %s vector", value.Kind(), v.elemType)
	}

	v.items = append(v.items, value)
	return nil
}

// Pop - removes and returns the last element, or false when empty.
func (v *Vector) Pop() (Value, bool) {
	if len(v.items) == 0 {
		return Value{}, false
	}

	last := v.items[len(v.items)-1]
	v.items = v.items[:len(v.items)-1]
	return last, true
}

// Set - replaces the element at index i, validating the value type.
func (v *Vector) Set(i int, value Value) error {
	if i >= len(v.items) {
		return models.IndexErrorf("index %d out of range for vector of length %d", i, len(v.items))
	}

	if !value.IsScalarOf(v.elemType) {
		return models.TypeErrorf("cannot set %s value in %s vector", value.Kind(), v.elemType)
	}

	v.items[i] = value
	return nil
}

// Clone - copies the vector and its backing storage.
func (v *Vector) Clone() *Vector {
	items := make([]Value, len(v.items))
	copy(items, v.items)
	return &Vector{elemType: v.elemType, items: items}
}

// MarshalJSON - encodes the element type and items.
func (v *Vector) MarshalJSON() ([]byte, error) {
	items := v.items
	if items == nil {
		items = []Value{}
	}

	return json.Marshal(struct {
		ElemType ScalarType `json:"elem_type"`
		Items    []Value    `json:"items"`
	}{ElemType: v.elemType, Items: items})
}
