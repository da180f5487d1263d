package compute

import "github.com/neekrasov/typedkv/internal/database/types"

// StatementKind - discriminates parsed statements.
type StatementKind int

const (
	StatementNull StatementKind = iota
	StatementGet
	StatementExists
	StatementGetIfExists
	StatementGetLifetime
	StatementValueType
	StatementDelete
	StatementSet
	StatementSetIfNotExists
	StatementUpdate
	StatementUpdateLifetime
	StatementExpireKeys
	StatementShutdown
	StatementVectorGet
	StatementVectorLength
	StatementVectorAppend
	StatementVectorPop
	StatementVectorSet
	StatementMapGet
	StatementMapExists
	StatementMapLength
	StatementMapSet
	StatementMapDelete
)

// String - the statement's keyword, used for logging and errors.
func (k StatementKind) String() string {
	switch k {
	case StatementNull:
		return "null"
	case StatementGet:
		return "get"
	case StatementExists:
		return "ex"
	case StatementGetIfExists:
		return "try_get"
	case StatementGetLifetime:
		return "get_lifetime"
	case StatementValueType:
		return "type"
	case StatementDelete:
		return "del"
	case StatementSet:
		return "set"
	case StatementSetIfNotExists:
		return "try_set"
	case StatementUpdate:
		return "upd"
	case StatementUpdateLifetime:
		return "lt"
	case StatementExpireKeys:
		return "expire_keys"
	case StatementShutdown:
		return "shutdown"
	case StatementVectorGet:
		return "vget"
	case StatementVectorLength:
		return "vlen"
	case StatementVectorAppend:
		return "vpush"
	case StatementVectorPop:
		return "vpop"
	case StatementVectorSet:
		return "vset"
	case StatementMapGet:
		return "mget"
	case StatementMapExists:
		return "mex"
	case StatementMapLength:
		return "mlen"
	case StatementMapSet:
		return "mset"
	case StatementMapDelete:
		return "mdel"
	}

	return "unknown"
}

// Statement - one parsed operation. Only the fields the kind calls for are
// meaningful: Key for every key-addressed statement, Value for writes,
// MapKey for map element operations, Index for vector element operations,
// and Lifetime (guarded by HasLifetime) for TTL-carrying statements.
type Statement struct {
	Kind   StatementKind
	Key    string
	Value  types.Value
	MapKey types.Value
	Index  int

	Lifetime    uint64
	HasLifetime bool
}
