package storage

import "time"

// Option - configures the engine.
type Option func(*Engine)

// WithClock - overrides the time source, used by expiration tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRandSource - overrides the index sampler, used to make sweeps
// deterministic in tests.
func WithRandSource(intn func(n int) int) Option {
	return func(e *Engine) {
		e.intn = intn
	}
}
