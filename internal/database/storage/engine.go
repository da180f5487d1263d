package storage

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/neekrasov/typedkv/pkg/logger"
)

// container - an entry in the engine map. keyIndex records the entry's slot
// in the expiring-keys sequence, or -1 when the entry has no expiration.
type container struct {
	element  Element
	keyIndex int
}

// Engine - the in-memory key-value store. Alongside the main map it keeps
// a parallel sequence of exactly those keys whose entry carries an
// expiration; each indexed entry records its slot, and removal swaps with
// the last slot, so insertion, removal and uniform random sampling are all
// O(1).
//
// The engine is not safe for concurrent use. Serialization is the caller's
// responsibility; in the server, the single executor worker is the only
// goroutine touching it.
type Engine struct {
	data     map[string]*container
	expiring []string

	now  func() time.Time
	intn func(n int) int
}

// NewEngine - creates an empty engine.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		data: make(map[string]*container),
		now:  time.Now,
		intn: rand.Intn,
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Len - the number of physically resident entries, expired ones included.
func (e *Engine) Len() int {
	return len(e.data)
}

// ExpiringKeysCount - the number of entries tracked in the expiration index.
func (e *Engine) ExpiringKeysCount() int {
	return len(e.expiring)
}

// Get - returns a copy of the entry, failing if the key is absent or the
// entry has expired. Collection values are deep-copied so the result is
// safe to hand across goroutines.
func (e *Engine) Get(key string) (Element, error) {
	element, ok := e.GetIfExists(key)
	if !ok {
		return Element{}, makeKeyError(key)
	}

	return element, nil
}

// GetIfExists - like Get, but absence and expiration report as a false
// second return instead of an error.
func (e *Engine) GetIfExists(key string) (Element, bool) {
	c, ok := e.data[key]
	if !ok || c.element.ExpiredAt(e.now()) {
		return Element{}, false
	}

	return c.element.Clone(), true
}

// GetMut - returns the live stored element for in-place container
// mutation. The pointer stays valid only until the next engine call.
func (e *Engine) GetMut(key string) (*Element, error) {
	c, ok := e.data[key]
	if !ok || c.element.ExpiredAt(e.now()) {
		return nil, makeKeyError(key)
	}

	return &c.element, nil
}

// ContainsKey - reports whether the key holds a live entry.
func (e *Engine) ContainsKey(key string) bool {
	c, ok := e.data[key]
	return ok && !c.element.ExpiredAt(e.now())
}

// Set - inserts or replaces the entry for a key, keeping the expiration
// index synchronized.
func (e *Engine) Set(key string, element Element) {
	c, ok := e.data[key]
	if !ok {
		c = &container{keyIndex: -1}
		e.data[key] = c
	}

	c.element = element
	e.syncIndex(key, c)
}

// SetIfNotExists - inserts only when the key is absent. A physically
// resident expired entry still counts as present.
func (e *Engine) SetIfNotExists(key string, element Element) bool {
	if _, ok := e.data[key]; ok {
		return false
	}

	e.Set(key, element)
	return true
}

// Update - replaces the entry for a key that currently exists and has not
// expired; otherwise fails with a key error.
func (e *Engine) Update(key string, element Element) error {
	if !e.ContainsKey(key) {
		return makeKeyError(key)
	}

	e.Set(key, element)
	return nil
}

// UpdateExpiration - rewrites the expiration of a live entry, keeping the
// index synchronized. A zero expiresAt clears the expiration.
func (e *Engine) UpdateExpiration(key string, expiresAt time.Time) error {
	c, ok := e.data[key]
	if !ok || c.element.ExpiredAt(e.now()) {
		return makeKeyError(key)
	}

	c.element.ExpiresAt = expiresAt
	e.syncIndex(key, c)
	return nil
}

// Delete - physically removes the entry. Returns true only when an entry
// was removed and had not expired; an absent or already-expired key
// reports false.
func (e *Engine) Delete(key string) bool {
	c, ok := e.data[key]
	if !ok {
		return false
	}

	delete(e.data, key)
	if c.keyIndex >= 0 {
		e.removeIndex(c.keyIndex)
	}

	return !c.element.ExpiredAt(e.now())
}

// InvalidateExpiredKeys - one round of the probabilistic sweep: sample a
// uniformly random slot of the expiration index, and if that entry has
// expired, remove it and report 1. Expired entries missed by a round stay
// resident but are filtered from every read path.
func (e *Engine) InvalidateExpiredKeys() int {
	if len(e.expiring) == 0 {
		return 0
	}

	i := e.intn(len(e.expiring))
	key := e.expiring[i]
	c := e.data[key]
	if !c.element.ExpiredAt(e.now()) {
		return 0
	}

	delete(e.data, key)
	e.removeIndex(i)
	logger.Debug("invalidated expired key", zap.String("key", key))

	return 1
}

// syncIndex - reconciles an entry's expiration with the index: absent from
// the index and expiring -> append; indexed and no longer expiring ->
// swap-with-last removal; otherwise the recorded slot stays valid.
func (e *Engine) syncIndex(key string, c *container) {
	switch {
	case c.element.HasExpiration() && c.keyIndex < 0:
		e.expiring = append(e.expiring, key)
		c.keyIndex = len(e.expiring) - 1
	case !c.element.HasExpiration() && c.keyIndex >= 0:
		e.removeIndex(c.keyIndex)
		c.keyIndex = -1
	}
}

// removeIndex - deletes slot i by overwriting it with the last slot and
// truncating; the moved entry's recorded slot is updated. Removing the
// last slot only truncates.
func (e *Engine) removeIndex(i int) {
	last := len(e.expiring) - 1
	if i != last {
		moved := e.expiring[last]
		e.expiring[i] = moved
		e.data[moved].keyIndex = i
	}

	e.expiring = e.expiring[:last]
}
