package types

import (
	"github.com/goccy/go-json"

	"github.com/neekrasov/typedkv/internal/database/models"
)

// Map - an unordered homogeneous mapping. Key and element types live on the
// container; keys are restricted to string and int scalars, so Value
// equality is always well defined for them.
type Map struct {
	keyType  KeyType
	elemType ScalarType
	entries  map[Value]Value
}

// NewMap - creates an empty map with the given key and element types.
func NewMap(keyType KeyType, elemType ScalarType) *Map {
	return &Map{
		keyType:  keyType,
		elemType: elemType,
		entries:  make(map[Value]Value),
	}
}

// KeyType - the declared key type.
func (m *Map) KeyType() KeyType {
	return m.keyType
}

// ElemType - the declared element type.
func (m *Map) ElemType() ScalarType {
	return m.elemType
}

// Len - the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

func (m *Map) checkKey(key Value) error {
	if !key.IsScalarOf(m.keyType.Scalar()) {
		return models.TypeErrorf("cannot use %s value as key in map with %s keys", key.Kind(), m.keyType)
	}

	return nil
}

// Get - looks up a key, failing on a key-type mismatch or a missing entry.
func (m *Map) Get(key Value) (Value, error) {
	if err := m.checkKey(key); err != nil {
		return Value{}, err
	}

	value, ok := m.entries[key]
	if !ok {
		return Value{}, models.IndexErrorf("no entry for the requested map key")
	}

	return value, nil
}

// ContainsKey - reports whether a key is present, failing on a type mismatch.
func (m *Map) ContainsKey(key Value) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	_, ok := m.entries[key]
	return ok, nil
}

// Set - inserts or replaces an entry, validating both sides.
func (m *Map) Set(key, value Value) error {
	if err := m.checkKey(key); err != nil {
		return err
	}

	if !value.IsScalarOf(m.elemType) {
		return models.TypeErrorf("cannot set %s value in map with %s values", value.Kind(), m.elemType)
	}

	m.entries[key] = value
	return nil
}

// Delete - removes an entry, reporting whether one was present.
func (m *Map) Delete(key Value) (bool, error) {
	if err := m.checkKey(key); err != nil {
		return false, err
	}

	_, ok := m.entries[key]
	delete(m.entries, key)
	return ok, nil
}

// Clone - copies the map and its entries.
func (m *Map) Clone() *Map {
	entries := make(map[Value]Value, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v
	}

	return &Map{keyType: m.keyType, elemType: m.elemType, entries: entries}
}

// MarshalJSON - encodes the type parameters and the entries as an array of
// pairs, since JSON object keys must be strings.
func (m *Map) MarshalJSON() ([]byte, error) {
	pairs := make([][2]Value, 0, len(m.entries))
	for k, v := range m.entries {
		pairs = append(pairs, [2]Value{k, v})
	}

	return json.Marshal(struct {
		KeyType  KeyType    `json:"key_type"`
		ElemType ScalarType `json:"elem_type"`
		Entries  [][2]Value `json:"entries"`
	}{KeyType: m.keyType, ElemType: m.elemType, Entries: pairs})
}
