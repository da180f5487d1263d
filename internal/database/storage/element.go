package storage

import (
	"time"

	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/types"
)

// Element - a stored record: the key, its value, and an optional absolute
// expiration instant. A zero ExpiresAt means the entry never expires.
type Element struct {
	Key       string
	Value     types.Value
	ExpiresAt time.Time
}

// HasExpiration - reports whether the element carries an expiration.
func (e Element) HasExpiration() bool {
	return !e.ExpiresAt.IsZero()
}

// ExpiredAt - reports whether the element has expired as of the given instant.
func (e Element) ExpiredAt(now time.Time) bool {
	return e.HasExpiration() && !e.ExpiresAt.After(now)
}

// Clone - copies the element, deep-copying any collection value.
func (e Element) Clone() Element {
	e.Value = e.Value.Clone()
	return e
}

func makeKeyError(key string) error {
	return models.KeyErrorf("no entry with key '%s' exists", key)
}
