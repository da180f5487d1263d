package types_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/types"
)

func TestVector(t *testing.T) {
	t.Parallel()

	t.Run("push and get", func(t *testing.T) {
		v := types.NewVector(types.ScalarInt)
		require.NoError(t, v.Push(types.Int(1)))
		require.NoError(t, v.Push(types.Int(2)))

		assert.Equal(t, 2, v.Len())

		value, err := v.Get(1)
		require.NoError(t, err)
		assert.Equal(t, types.Int(2), value)
	})

	t.Run("push type mismatch", func(t *testing.T) {
		v := types.NewVector(types.ScalarBool)
		err := v.Push(types.Int(1))
		assert.True(t, models.IsKind(err, models.TypeError))
		assert.Equal(t, 0, v.Len())
	})

	t.Run("get out of range", func(t *testing.T) {
		v := types.NewVector(types.ScalarInt)
		_, err := v.Get(0)
		assert.True(t, models.IsKind(err, models.IndexError))
	})

	t.Run("pop", func(t *testing.T) {
		v := types.NewVector(types.ScalarString)
		require.NoError(t, v.Push(types.String("a")))

		value, ok := v.Pop()
		require.True(t, ok)
		assert.Equal(t, types.String("a"), value)

		_, ok = v.Pop()
		assert.False(t, ok)
	})

	t.Run("set", func(t *testing.T) {
		v := types.NewVector(types.ScalarInt)
		require.NoError(t, v.Push(types.Int(1)))

		require.NoError(t, v.Set(0, types.Int(5)))
		value, err := v.Get(0)
		require.NoError(t, err)
		assert.Equal(t, types.Int(5), value)

		assert.True(t, models.IsKind(v.Set(1, types.Int(5)), models.IndexError))
		assert.True(t, models.IsKind(v.Set(0, types.Bool(true)), models.TypeError))
	})

	t.Run("clone is independent", func(t *testing.T) {
		v := types.NewVector(types.ScalarInt)
		require.NoError(t, v.Push(types.Int(1)))

		clone := v.Clone()
		require.NoError(t, clone.Push(types.Int(2)))

		assert.Equal(t, 1, v.Len())
		assert.Equal(t, 2, clone.Len())
	})
}

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		m := types.NewMap(types.KeyInt, types.ScalarInt)
		require.NoError(t, m.Set(types.Int(1), types.Int(2)))

		value, err := m.Get(types.Int(1))
		require.NoError(t, err)
		assert.Equal(t, types.Int(2), value)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("get missing entry", func(t *testing.T) {
		m := types.NewMap(types.KeyInt, types.ScalarInt)
		_, err := m.Get(types.Int(1))
		assert.True(t, models.IsKind(err, models.IndexError))
	})

	t.Run("key type mismatch", func(t *testing.T) {
		m := types.NewMap(types.KeyInt, types.ScalarInt)

		_, err := m.Get(types.String("k"))
		assert.True(t, models.IsKind(err, models.TypeError))

		_, err = m.ContainsKey(types.Float(1.0))
		assert.True(t, models.IsKind(err, models.TypeError))

		assert.True(t, models.IsKind(m.Set(types.Null(), types.Int(1)), models.TypeError))

		_, err = m.Delete(types.Bool(true))
		assert.True(t, models.IsKind(err, models.TypeError))
	})

	t.Run("value type mismatch", func(t *testing.T) {
		m := types.NewMap(types.KeyString, types.ScalarBool)
		err := m.Set(types.String("k"), types.Int(1))
		assert.True(t, models.IsKind(err, models.TypeError))
	})

	t.Run("contains and delete", func(t *testing.T) {
		m := types.NewMap(types.KeyString, types.ScalarInt)
		require.NoError(t, m.Set(types.String("k"), types.Int(1)))

		ok, err := m.ContainsKey(types.String("k"))
		require.NoError(t, err)
		assert.True(t, ok)

		removed, err := m.Delete(types.String("k"))
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = m.Delete(types.String("k"))
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestValueJSON(t *testing.T) {
	t.Parallel()

	t.Run("scalars", func(t *testing.T) {
		tests := []struct {
			name     string
			value    types.Value
			expected string
		}{
			{"null", types.Null(), `"Null"`},
			{"bool", types.Bool(true), `{"Bool":true}`},
			{"int", types.Int(1), `{"Int":1}`},
			{"float", types.Float(1.5), `{"Float":1.5}`},
			{"string", types.String("abc"), `{"String":"abc"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				encoded, err := json.Marshal(tt.value)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, string(encoded))
			})
		}
	})

	t.Run("vector", func(t *testing.T) {
		v := types.NewVector(types.ScalarInt)
		require.NoError(t, v.Push(types.Int(1)))

		encoded, err := json.Marshal(types.VectorValue(v))
		require.NoError(t, err)
		assert.Equal(t, `{"Vector":{"elem_type":"int","items":[{"Int":1}]}}`, string(encoded))
	})
}

func TestTypeDesc(t *testing.T) {
	t.Parallel()

	t.Run("scalar", func(t *testing.T) {
		encoded, err := json.Marshal(types.Int(1).TypeDesc())
		require.NoError(t, err)
		assert.Equal(t, `"Int"`, string(encoded))
	})

	t.Run("vector", func(t *testing.T) {
		desc := types.VectorValue(types.NewVector(types.ScalarFloat)).TypeDesc()
		encoded, err := json.Marshal(desc)
		require.NoError(t, err)
		assert.Equal(t, `{"Vector":"float"}`, string(encoded))
	})

	t.Run("map", func(t *testing.T) {
		desc := types.MapValue(types.NewMap(types.KeyInt, types.ScalarString)).TypeDesc()
		encoded, err := json.Marshal(desc)
		require.NoError(t, err)
		assert.Equal(t, `{"Map":["int","str"]}`, string(encoded))
	})
}
