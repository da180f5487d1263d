package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neekrasov/typedkv/internal/database"
	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/storage"
	"github.com/neekrasov/typedkv/internal/database/types"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// run - parses a query and interprets it with the given interpreter.
func run(t *testing.T, engine *storage.Engine, interpreter *database.Interpreter,
	query string, level auth.Level,
) (database.Response, error) {
	t.Helper()

	statements, err := compute.ParseQuery(query)
	require.NoError(t, err)

	return interpreter.Interpret(database.Request{
		Statements:    statements,
		Authorization: level,
	})
}

func newInterpreter(opts ...storage.Option) (*storage.Engine, *database.Interpreter) {
	engine := storage.NewEngine(opts...)
	return engine, database.NewInterpreter(engine)
}

func TestInterpreter_RoundTrip(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	t.Run("set then get returns the value", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		response, err := run(t, engine, interpreter, "set x 1; get x", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(1)), response)
	})

	t.Run("vector round trip", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		response, err := run(t, engine, interpreter,
			"set xs int [1, 2, 3]; vpush xs 4; vlen xs", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.SizeResponse(4), response)

		response, err = run(t, engine, interpreter, "vget xs 3", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(4)), response)

		response, err = run(t, engine, interpreter, "vpop xs", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(4)), response)
	})

	t.Run("map round trip", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		response, err := run(t, engine, interpreter,
			`set m str int {"a":1}; mset m "b" 2; mlen m`, auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.SizeResponse(2), response)

		response, err = run(t, engine, interpreter, `mget m "b"`, auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(2)), response)

		response, err = run(t, engine, interpreter, `mdel m "a"; mex m "a"`, auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.BoolResponse(false), response)
	})

	t.Run("map with wrong key type", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		_, err := run(t, engine, interpreter, `set m int int {1:2}; mget m "k"`, auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.TypeError))
	})

	t.Run("subfield op on wrong container", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		_, err := run(t, engine, interpreter, "set x 1; vlen x", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.TypeError))

		_, err = run(t, engine, interpreter, "mlen x", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.TypeError))
	})
}

func TestInterpreter_Responses(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	engine, interpreter := newInterpreter()

	tests := []struct {
		name     string
		query    string
		expected database.Response
	}{
		{"set", "set x 1", database.MessageResponse("Ok")},
		{"exists", "ex x", database.BoolResponse(true)},
		{"exists missing", "ex missing", database.BoolResponse(false)},
		{"try_get missing", "try_get missing", database.ValueResponse(types.Null())},
		{"type", "type x", database.TypeResponse(types.Int(0).TypeDesc())},
		{"try_set taken", "try_set x 2", database.BoolResponse(false)},
		{"update", "upd x 3", database.MessageResponse("Ok")},
		{"delete", "del x", database.BoolResponse(true)},
		{"delete again", "del x", database.BoolResponse(false)},
		{"try_set free", "try_set x 2", database.BoolResponse(true)},
		{"vpop empty", "set v str; vpop v", database.ValueResponse(types.Null())},
		{"empty query", "", database.NullResponse()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := run(t, engine, interpreter, tt.query, auth.LevelAdmin)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, response)
		})
	}

	t.Run("get missing key", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "get missing", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.KeyError))
	})

	t.Run("update missing key", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "upd missing 1", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.KeyError))
	})

	t.Run("shutdown stops the sequence", func(t *testing.T) {
		response, err := run(t, engine, interpreter, "shutdown; set y 1", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ShuttingDownResponse(), response)

		_, err = run(t, engine, interpreter, "get y", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.KeyError))
	})
}

func TestInterpreter_Lifetimes(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	current := time.Unix(1000, 0)
	clock := func() time.Time { return current }
	engine := storage.NewEngine(storage.WithClock(clock))
	interpreter := database.NewInterpreter(engine, database.WithClock(clock))

	t.Run("set with ttl expires", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "set x 1 60", auth.LevelAdmin)
		require.NoError(t, err)

		response, err := run(t, engine, interpreter, "get x", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(1)), response)

		current = current.Add(61 * time.Second)

		_, err = run(t, engine, interpreter, "get x", auth.LevelAdmin)
		assert.True(t, models.IsKind(err, models.KeyError))

		response, err = run(t, engine, interpreter, "ex x", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.BoolResponse(false), response)
	})

	t.Run("lifetime reads back in whole seconds", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "set y 1 90", auth.LevelAdmin)
		require.NoError(t, err)

		current = current.Add(30*time.Second + 500*time.Millisecond)

		response, err := interpreter.Interpret(database.Request{
			Statements:    []compute.Statement{{Kind: compute.StatementGetLifetime, Key: "y"}},
			Authorization: auth.LevelRead,
		})
		require.NoError(t, err)
		require.NotNil(t, response.Expiration)
		assert.Equal(t, uint64(59), *response.Expiration)
	})

	t.Run("no lifetime reads back as null", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "set z 1", auth.LevelAdmin)
		require.NoError(t, err)

		response, err := interpreter.Interpret(database.Request{
			Statements:    []compute.Statement{{Kind: compute.StatementGetLifetime, Key: "z"}},
			Authorization: auth.LevelRead,
		})
		require.NoError(t, err)
		assert.Equal(t, database.ExpirationResponse(nil), response)
	})

	t.Run("clearing the lifetime keeps the entry alive", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "set w 1 60; lt w", auth.LevelAdmin)
		require.NoError(t, err)

		current = current.Add(2 * time.Minute)

		response, err := run(t, engine, interpreter, "get w", auth.LevelAdmin)
		require.NoError(t, err)
		assert.Equal(t, database.ValueResponse(types.Int(1)), response)
	})

	t.Run("expire keys reports removals", func(t *testing.T) {
		_, err := run(t, engine, interpreter, "set doomed 1 1", auth.LevelAdmin)
		require.NoError(t, err)
		current = current.Add(2 * time.Second)

		removed := 0
		for i := 0; i < 100 && engine.ExpiringKeysCount() > 0; i++ {
			response, err := interpreter.Interpret(database.Request{
				Statements:    []compute.Statement{{Kind: compute.StatementExpireKeys}},
				Authorization: auth.LevelAdmin,
			})
			require.NoError(t, err)
			removed += int(response.Size)
		}

		// x and y from the earlier subtests have expired too and are still
		// resident in the shared engine, so the sweep removes them as well.
		assert.Equal(t, 3, removed)
	})
}

func TestInterpreter_Authorization(t *testing.T) {
	t.Parallel()
	logger.MockLogger()

	mutators := []string{
		"set x 1",
		"try_set x 1",
		"upd x 1",
		"lt x 5",
		"del x",
		"vset x 0 1",
		"vpush x 1",
		"vpop x",
		`mset x "k" 1`,
		`mdel x "k"`,
	}

	t.Run("mutators rejected at read level without side effects", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		for _, query := range mutators {
			_, err := run(t, engine, interpreter, query, auth.LevelRead)
			assert.True(t, models.IsKind(err, models.AuthorizationError), "query %q", query)
		}

		response, err := run(t, engine, interpreter, "ex x", auth.LevelRead)
		require.NoError(t, err)
		assert.Equal(t, database.BoolResponse(false), response)
	})

	t.Run("one unauthorized statement blocks the whole request", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		_, err := run(t, engine, interpreter, "set x 1; shutdown", auth.LevelWrite)
		assert.True(t, models.IsKind(err, models.AuthorizationError))

		_, err = run(t, engine, interpreter, "get x", auth.LevelRead)
		assert.True(t, models.IsKind(err, models.KeyError))
	})

	t.Run("write level covers mutators but not shutdown", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		response, err := run(t, engine, interpreter, "set x 1", auth.LevelWrite)
		require.NoError(t, err)
		assert.Equal(t, database.MessageResponse("Ok"), response)

		_, err = run(t, engine, interpreter, "shutdown", auth.LevelWrite)
		assert.True(t, models.IsKind(err, models.AuthorizationError))
	})

	t.Run("reads allowed at read level", func(t *testing.T) {
		engine, interpreter := newInterpreter()

		_, err := run(t, engine, interpreter, "set xs int [1]", auth.LevelAdmin)
		require.NoError(t, err)

		for _, query := range []string{"get xs", "ex xs", "try_get xs", "type xs", "vlen xs", "vget xs 0"} {
			_, err := run(t, engine, interpreter, query, auth.LevelRead)
			assert.NoError(t, err, "query %q", query)
		}
	})
}
