package database

import (
	"time"

	"github.com/neekrasov/typedkv/internal/database/auth"
	"github.com/neekrasov/typedkv/internal/database/compute"
	"github.com/neekrasov/typedkv/internal/database/storage"
)

// Store - the storage capability the interpreter drives. The engine is the
// one implementation; the interface exists so interpreter tests can observe
// and fault individual operations.
type Store interface {
	// Get - returns a copy of the live entry or a key error.
	Get(key string) (storage.Element, error)
	// GetIfExists - like Get, reporting absence instead of failing.
	GetIfExists(key string) (storage.Element, bool)
	// GetMut - returns the live stored element for in-place mutation.
	GetMut(key string) (*storage.Element, error)
	// ContainsKey - reports whether the key holds a live entry.
	ContainsKey(key string) bool
	// Set - inserts or replaces an entry.
	Set(key string, element storage.Element)
	// SetIfNotExists - inserts only when the key is absent.
	SetIfNotExists(key string, element storage.Element) bool
	// Update - replaces an entry that exists and has not expired.
	Update(key string, element storage.Element) error
	// UpdateExpiration - rewrites the expiration of a live entry.
	UpdateExpiration(key string, expiresAt time.Time) error
	// Delete - removes an entry, reporting whether a live one was removed.
	Delete(key string) bool
	// InvalidateExpiredKeys - runs one round of the expiration sweep.
	InvalidateExpiredKeys() int
}

// Request - an ordered statement sequence plus the authorization level the
// caller holds.
type Request struct {
	Statements    []compute.Statement
	Authorization auth.Level
}

// Result - the outcome of a request: a response or an error, never both.
type Result struct {
	Response Response
	Err      error
}

// Interpreter - executes statement sequences against the storage engine.
// It never runs concurrently with itself; the executor worker owns it.
type Interpreter struct {
	storage Store
	now     func() time.Time
}

// NewInterpreter - creates an interpreter over the given store.
func NewInterpreter(store Store, opts ...InterpreterOption) *Interpreter {
	i := &Interpreter{storage: store, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// InterpreterOption - configures the interpreter.
type InterpreterOption func(*Interpreter)

// WithClock - overrides the time source, used by lifetime tests.
func WithClock(now func() time.Time) InterpreterOption {
	return func(i *Interpreter) {
		i.now = now
	}
}
