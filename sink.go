package formengine

import (
	"context"

	"github.com/rs/zerolog"
)

// Sink receives the validated form exactly once per successful submission.
type Sink[T any] interface {
	Submit(ctx context.Context, form T) error
}

type SinkFunc[T any] func(ctx context.Context, form T) error

func (f SinkFunc[T]) Submit(ctx context.Context, form T) error {
	return f(ctx, form)
}

// LogSink writes the submitted form as a structured log event.
type LogSink[T any] struct {
	Logger zerolog.Logger
	Name   string
}

func NewLogSink[T any](logger zerolog.Logger, name string) *LogSink[T] {
	return &LogSink[T]{Logger: logger, Name: name}
}

func (s *LogSink[T]) Submit(ctx context.Context, form T) error {
	s.Logger.Info().
		Str("form", s.Name).
		Interface("data", form).
		Msg("form submitted")
	return nil
}
