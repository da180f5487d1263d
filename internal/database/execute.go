package database

import (
	"time"

	"go.uber.org/zap"

	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/storage"
	"github.com/neekrasov/typedkv/internal/database/types"
	"github.com/neekrasov/typedkv/pkg/logger"
)

// Interpret - validates authorization for the whole sequence, then runs the
// statements in order. Execution stops at the first error or at a shutdown
// acknowledgement; otherwise the result of the last statement is returned
// (null for an empty sequence).
func (i *Interpreter) Interpret(request Request) (Response, error) {
	if err := validateAuthorization(request.Statements, request.Authorization); err != nil {
		return Response{}, err
	}

	response := NullResponse()
	for _, statement := range request.Statements {
		var err error
		response, err = i.execute(statement)
		if err != nil {
			logger.Debug("statement failed",
				zap.Stringer("statement", statement.Kind),
				zap.String("key", statement.Key),
				zap.Error(err),
			)
			return Response{}, err
		}

		if response.Kind == ResponseShuttingDown {
			break
		}
	}

	return response, nil
}

func (i *Interpreter) execute(statement compute.Statement) (Response, error) {
	switch statement.Kind {
	case compute.StatementShutdown:
		return ShuttingDownResponse(), nil
	case compute.StatementNull:
		return NullResponse(), nil
	case compute.StatementGet:
		return i.get(statement.Key)
	case compute.StatementExists:
		return BoolResponse(i.storage.ContainsKey(statement.Key)), nil
	case compute.StatementGetIfExists:
		return i.getIfExists(statement.Key)
	case compute.StatementGetLifetime:
		return i.getLifetime(statement.Key)
	case compute.StatementValueType:
		return i.valueType(statement.Key)
	case compute.StatementExpireKeys:
		return SizeResponse(uint64(i.storage.InvalidateExpiredKeys())), nil
	case compute.StatementDelete:
		return BoolResponse(i.storage.Delete(statement.Key)), nil
	case compute.StatementSet:
		return i.set(statement)
	case compute.StatementSetIfNotExists:
		return i.setIfNotExists(statement)
	case compute.StatementUpdate:
		return i.update(statement)
	case compute.StatementUpdateLifetime:
		return i.updateLifetime(statement)
	case compute.StatementVectorGet:
		return i.vectorGet(statement.Key, statement.Index)
	case compute.StatementVectorLength:
		return i.vectorLength(statement.Key)
	case compute.StatementVectorAppend:
		return i.vectorAppend(statement.Key, statement.Value)
	case compute.StatementVectorPop:
		return i.vectorPop(statement.Key)
	case compute.StatementVectorSet:
		return i.vectorSet(statement.Key, statement.Index, statement.Value)
	case compute.StatementMapGet:
		return i.mapGet(statement.Key, statement.MapKey)
	case compute.StatementMapExists:
		return i.mapExists(statement.Key, statement.MapKey)
	case compute.StatementMapLength:
		return i.mapLength(statement.Key)
	case compute.StatementMapSet:
		return i.mapSet(statement.Key, statement.MapKey, statement.Value)
	case compute.StatementMapDelete:
		return i.mapDelete(statement.Key, statement.MapKey)
	}

	return Response{}, models.InternalErrorf("unrecognized statement kind %d", statement.Kind)
}

// expiresAt - converts a relative lifetime in seconds to the absolute
// instant storage expects; the zero time means no expiration.
func (i *Interpreter) expiresAt(statement compute.Statement) time.Time {
	if !statement.HasLifetime {
		return time.Time{}
	}

	return i.now().Add(time.Duration(statement.Lifetime) * time.Second)
}

func (i *Interpreter) get(key string) (Response, error) {
	element, err := i.storage.Get(key)
	if err != nil {
		return Response{}, err
	}

	return ValueResponse(element.Value), nil
}

func (i *Interpreter) getIfExists(key string) (Response, error) {
	element, ok := i.storage.GetIfExists(key)
	if !ok {
		return ValueResponse(types.Null()), nil
	}

	return ValueResponse(element.Value), nil
}

// getLifetime - the remaining whole seconds of an entry's lifetime, or nil
// when the entry never expires. An entry that expired between the read and
// the subtraction reports an index error; the read path normally filters
// such entries first.
func (i *Interpreter) getLifetime(key string) (Response, error) {
	element, err := i.storage.Get(key)
	if err != nil {
		return Response{}, err
	}

	if !element.HasExpiration() {
		return ExpirationResponse(nil), nil
	}

	remaining := element.ExpiresAt.Sub(i.now())
	if remaining < 0 {
		return Response{}, models.IndexErrorf("No entry found for key %s", key)
	}

	seconds := uint64(remaining / time.Second)
	return ExpirationResponse(&seconds), nil
}

func (i *Interpreter) valueType(key string) (Response, error) {
	element, err := i.storage.Get(key)
	if err != nil {
		return Response{}, err
	}

	return TypeResponse(element.Value.TypeDesc()), nil
}

func (i *Interpreter) set(statement compute.Statement) (Response, error) {
	i.storage.Set(statement.Key, storage.Element{
		Key:       statement.Key,
		Value:     statement.Value,
		ExpiresAt: i.expiresAt(statement),
	})

	return MessageResponse("Ok"), nil
}

func (i *Interpreter) setIfNotExists(statement compute.Statement) (Response, error) {
	inserted := i.storage.SetIfNotExists(statement.Key, storage.Element{
		Key:       statement.Key,
		Value:     statement.Value,
		ExpiresAt: i.expiresAt(statement),
	})

	return BoolResponse(inserted), nil
}

func (i *Interpreter) update(statement compute.Statement) (Response, error) {
	err := i.storage.Update(statement.Key, storage.Element{
		Key:       statement.Key,
		Value:     statement.Value,
		ExpiresAt: i.expiresAt(statement),
	})
	if err != nil {
		return Response{}, err
	}

	return MessageResponse("Ok"), nil
}

func (i *Interpreter) updateLifetime(statement compute.Statement) (Response, error) {
	if err := i.storage.UpdateExpiration(statement.Key, i.expiresAt(statement)); err != nil {
		return Response{}, err
	}

	return MessageResponse("Ok"), nil
}

// vector - fetches a copy of the entry and checks it is a vector.
func (i *Interpreter) vector(key string) (*types.Vector, error) {
	element, err := i.storage.Get(key)
	if err != nil {
		return nil, err
	}

	if element.Value.Kind() != types.KindVector {
		return nil, models.TypeErrorf("Element with key '%s' not a vector.", key)
	}

	return element.Value.Vector(), nil
}

// vectorMut - fetches the live entry for mutation and checks it is a vector.
func (i *Interpreter) vectorMut(key string) (*types.Vector, error) {
	element, err := i.storage.GetMut(key)
	if err != nil {
		return nil, err
	}

	if element.Value.Kind() != types.KindVector {
		return nil, models.TypeErrorf("Element with key '%s' not a vector.", key)
	}

	return element.Value.Vector(), nil
}

func (i *Interpreter) vectorGet(key string, index int) (Response, error) {
	vector, err := i.vector(key)
	if err != nil {
		return Response{}, err
	}

	value, err := vector.Get(index)
	if err != nil {
		return Response{}, err
	}

	return ValueResponse(value), nil
}

func (i *Interpreter) vectorLength(key string) (Response, error) {
	vector, err := i.vector(key)
	if err != nil {
		return Response{}, err
	}

	return SizeResponse(uint64(vector.Len())), nil
}

func (i *Interpreter) vectorAppend(key string, value types.Value) (Response, error) {
	vector, err := i.vectorMut(key)
	if err != nil {
		return Response{}, err
	}

	if err := vector.Push(value); err != nil {
		return Response{}, err
	}

	return MessageResponse("Ok"), nil
}

func (i *Interpreter) vectorPop(key string) (Response, error) {
	vector, err := i.vectorMut(key)
	if err != nil {
		return Response{}, err
	}

	value, ok := vector.Pop()
	if !ok {
		return ValueResponse(types.Null()), nil
	}

	return ValueResponse(value), nil
}

func (i *Interpreter) vectorSet(key string, index int, value types.Value) (Response, error) {
	vector, err := i.vectorMut(key)
	if err != nil {
		return Response{}, err
	}

	if err := vector.Set(index, value); err != nil {
		return Response{}, err
	}

	return MessageResponse("Ok"), nil
}

// mapElement - fetches a copy of the entry and checks it is a map.
func (i *Interpreter) mapElement(key string) (*types.Map, error) {
	element, err := i.storage.Get(key)
	if err != nil {
		return nil, err
	}

	if element.Value.Kind() != types.KindMap {
		return nil, models.TypeErrorf("Element with key '%s' not a map.", key)
	}

	return element.Value.Map(), nil
}

// mapElementMut - fetches the live entry for mutation and checks it is a map.
func (i *Interpreter) mapElementMut(key string) (*types.Map, error) {
	element, err := i.storage.GetMut(key)
	if err != nil {
		return nil, err
	}

	if element.Value.Kind() != types.KindMap {
		return nil, models.TypeErrorf("Element with key '%s' not a map.", key)
	}

	return element.Value.Map(), nil
}

func (i *Interpreter) mapGet(key string, mapKey types.Value) (Response, error) {
	m, err := i.mapElement(key)
	if err != nil {
		return Response{}, err
	}

	value, err := m.Get(mapKey)
	if err != nil {
		return Response{}, err
	}

	return ValueResponse(value), nil
}

func (i *Interpreter) mapExists(key string, mapKey types.Value) (Response, error) {
	m, err := i.mapElement(key)
	if err != nil {
		return Response{}, err
	}

	ok, err := m.ContainsKey(mapKey)
	if err != nil {
		return Response{}, err
	}

	return BoolResponse(ok), nil
}

func (i *Interpreter) mapLength(key string) (Response, error) {
	m, err := i.mapElement(key)
	if err != nil {
		return Response{}, err
	}

	return SizeResponse(uint64(m.Len())), nil
}

func (i *Interpreter) mapSet(key string, mapKey, value types.Value) (Response, error) {
	m, err := i.mapElementMut(key)
	if err != nil {
		return Response{}, err
	}

	if err := m.Set(mapKey, value); err != nil {
		return Response{}, err
	}

	return MessageResponse("Ok"), nil
}

func (i *Interpreter) mapDelete(key string, mapKey types.Value) (Response, error) {
	m, err := i.mapElementMut(key)
	if err != nil {
		return Response{}, err
	}

	removed, err := m.Delete(mapKey)
	if err != nil {
		return Response{}, err
	}

	return BoolResponse(removed), nil
}
