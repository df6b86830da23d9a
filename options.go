package formengine

import (
	"time"

	"github.com/rs/zerolog"
)

type Option[T any] func(*Engine[T])

func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(e *Engine[T]) {
		e.logger = logger
	}
}

// WithSink adds a submission sink. Sinks run in the order they were added.
func WithSink[T any](sink Sink[T]) Option[T] {
	return func(e *Engine[T]) {
		if sink != nil {
			e.sinks = append(e.sinks, sink)
		}
	}
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(e *Engine[T]) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStateCheck rejects any patch or checkpoint that would produce a state
// for which check returns an error.
func WithStateCheck[T any](check func(T) error) Option[T] {
	return func(e *Engine[T]) {
		e.check = check
	}
}
