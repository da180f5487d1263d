package database

import (
	"github.com/goccy/go-json"

	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/types"
)

// ResponseKind - discriminates the response union.
type ResponseKind int

const (
	ResponseNull ResponseKind = iota
	ResponseValue
	ResponseMessage
	ResponseSize
	ResponseExpiration
	ResponseKey
	ResponseBool
	ResponseValueType
	ResponseShuttingDown
)

// Response - the tagged result a request produces. Only the field matching
// the kind is meaningful.
type Response struct {
	Kind ResponseKind

	Value      types.Value
	Message    string
	Size       uint64
	Expiration *uint64
	Key        string
	Bool       bool
	Type       types.TypeDesc
}

// NullResponse - the empty response.
func NullResponse() Response {
	return Response{Kind: ResponseNull}
}

// ValueResponse - wraps a storage value.
func ValueResponse(value types.Value) Response {
	return Response{Kind: ResponseValue, Value: value}
}

// MessageResponse - wraps a plain message, typically "Ok".
func MessageResponse(message string) Response {
	return Response{Kind: ResponseMessage, Message: message}
}

// SizeResponse - wraps a count.
func SizeResponse(size uint64) Response {
	return Response{Kind: ResponseSize, Size: size}
}

// ExpirationResponse - wraps a remaining lifetime; nil means the entry has
// no expiration.
func ExpirationResponse(seconds *uint64) Response {
	return Response{Kind: ResponseExpiration, Expiration: seconds}
}

// KeyResponse - wraps a storage key.
func KeyResponse(key string) Response {
	return Response{Kind: ResponseKey, Key: key}
}

// BoolResponse - wraps a boolean outcome.
func BoolResponse(b bool) Response {
	return Response{Kind: ResponseBool, Bool: b}
}

// TypeResponse - wraps a value type descriptor.
func TypeResponse(desc types.TypeDesc) Response {
	return Response{Kind: ResponseValueType, Type: desc}
}

// ShuttingDownResponse - acknowledges a shutdown statement.
func ShuttingDownResponse() Response {
	return Response{Kind: ResponseShuttingDown}
}

// MarshalJSON - tagged-variant encoding: unit variants as bare strings,
// payload variants as single-key objects.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResponseNull:
		return json.Marshal("Null")
	case ResponseValue:
		return json.Marshal(map[string]types.Value{"Value": r.Value})
	case ResponseMessage:
		return json.Marshal(map[string]string{"Message": r.Message})
	case ResponseSize:
		return json.Marshal(map[string]uint64{"Size": r.Size})
	case ResponseExpiration:
		return json.Marshal(map[string]*uint64{"Expiration": r.Expiration})
	case ResponseKey:
		return json.Marshal(map[string]string{"Key": r.Key})
	case ResponseBool:
		return json.Marshal(map[string]bool{"Bool": r.Bool})
	case ResponseValueType:
		return json.Marshal(map[string]types.TypeDesc{"ValueType": r.Type})
	case ResponseShuttingDown:
		return json.Marshal("ShuttingDown")
	}

	return nil, models.InternalErrorf("unencodable response kind %d", r.Kind)
}
