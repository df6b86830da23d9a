package assist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
)

// Target is the form the assistant edits.
type Target[T any] interface {
	State() T
	Issues() []types.FieldInfo
	AllowedPaths() []string
	ApplyPatch(ops []patch.Operation) error
}

type Assistant[T any] struct {
	generator *PatchGenerator[T]
	guidance  map[string]string
	logger    zerolog.Logger
}

func NewAssistant[T any](generator *PatchGenerator[T], guidance map[string]string, logger zerolog.Logger) *Assistant[T] {
	return &Assistant[T]{generator: generator, guidance: guidance, logger: logger}
}

// Fill turns input into patch operations and applies them to target. It
// returns the applied operations.
func (a *Assistant[T]) Fill(ctx context.Context, target Target[T], input string) ([]patch.Operation, error) {
	ops, err := a.generator.GeneratePatch(ctx, &Request[T]{
		Input:        input,
		CurrentState: target.State(),
		AllowedPaths: target.AllowedPaths(),
		Issues:       target.Issues(),
		Guidance:     a.guidance,
	})
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		a.logger.Debug().Msg("assistant found nothing to fill")
		return nil, nil
	}
	if err := target.ApplyPatch(ops); err != nil {
		return nil, fmt.Errorf("failed to apply generated patch: %w", err)
	}
	a.logger.Debug().Int("ops", len(ops)).Msg("assistant patch applied")
	return ops, nil
}
