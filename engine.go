// Package formengine holds the state of one form instance, applies edits as
// atomic JSON patches, validates on submission and hands the validated value
// to the configured sinks.
package formengine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
	"github.com/tbxark/formengine/validation"
)

type Engine[T any] struct {
	mu sync.Mutex

	spec         FormSpec[T]
	validator    validation.Validator[T]
	sinks        []Sink[T]
	logger       zerolog.Logger
	now          func() time.Time
	allowedPaths map[string]bool
	check        func(T) error

	state  T
	issues []types.FieldInfo
	phase  types.Phase
	// delivered marks sinks that already received the form during a
	// submission that has not completed yet.
	delivered map[int]bool
}

func New[T any](spec FormSpec[T], opts ...Option[T]) (*Engine[T], error) {
	if spec == nil {
		return nil, fmt.Errorf("form spec is required")
	}
	validator := spec.Validator()
	if validator == nil {
		return nil, fmt.Errorf("form spec returned no validator")
	}

	paths := spec.AllowedJSONPointers()
	if len(paths) == 0 {
		paths = patch.AllJSONPointerPaths[T]()
	}

	e := &Engine[T]{
		spec:         spec,
		validator:    validator,
		logger:       zerolog.Nop(),
		now:          time.Now,
		allowedPaths: patch.AllowedSet(paths),
		state:        spec.Defaults(),
		phase:        types.PhaseEditing,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Apply validates and applies ops as one atomic change. On error the state is
// left untouched.
func (e *Engine[T]) Apply(ops []patch.Operation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(ops)
}

// Update builds operations from a snapshot of the current state and applies
// them. fn must not call back into the engine.
func (e *Engine[T]) Update(fn func(current T) ([]patch.Operation, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == types.PhaseSubmitted {
		return ErrSubmitted
	}
	snapshot, err := clone(e.state)
	if err != nil {
		return err
	}
	ops, err := fn(snapshot)
	if err != nil {
		return err
	}
	return e.applyLocked(ops)
}

func (e *Engine[T]) applyLocked(ops []patch.Operation) error {
	if e.phase == types.PhaseSubmitted {
		return ErrSubmitted
	}
	if len(ops) == 0 {
		return nil
	}
	if err := patch.ValidatePatchOperations(ops, e.allowedPaths); err != nil {
		return fmt.Errorf("patch validation failed: %w", err)
	}
	newState, err := patch.ApplyRFC6902(e.state, ops)
	if err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	if err := e.checkState(newState); err != nil {
		return err
	}
	e.state = newState
	e.logger.Debug().Int("ops", len(ops)).Str("first_path", ops[0].Path).Msg("patch applied")
	return nil
}

// Validate runs the validator against the current state and stores the result.
func (e *Engine[T]) Validate() []types.FieldInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneIssues(e.validateLocked())
}

func (e *Engine[T]) checkState(state T) error {
	if e.check == nil {
		return nil
	}
	if err := e.check(state); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

func (e *Engine[T]) validateLocked() []types.FieldInfo {
	snapshot, err := clone(e.state)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to copy state for validation")
		snapshot = e.state
	}
	e.issues = e.validator.Validate(snapshot)
	e.logger.Debug().Int("issues", len(e.issues)).Msg("form validated")
	return e.issues
}

// Submit validates the form. With no issues every sink receives its own
// snapshot of the state and the engine moves to PhaseSubmitted. A failing sink
// keeps the engine in PhaseEditing; the sinks that already accepted the form
// are skipped when Submit is called again, until Reset.
func (e *Engine[T]) Submit(ctx context.Context) ([]types.FieldInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == types.PhaseSubmitted {
		return nil, ErrSubmitted
	}
	issues := e.validateLocked()
	if len(issues) > 0 {
		e.logger.Debug().Int("issues", len(issues)).Msg("submission rejected")
		return cloneIssues(issues), nil
	}

	for i, sink := range e.sinks {
		if e.delivered[i] {
			continue
		}
		snapshot, err := clone(e.state)
		if err != nil {
			return nil, err
		}
		if err := sink.Submit(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("failed to submit form: %w", err)
		}
		if e.delivered == nil {
			e.delivered = make(map[int]bool)
		}
		e.delivered[i] = true
	}
	e.phase = types.PhaseSubmitted
	e.delivered = nil
	return nil, nil
}

// Reset discards the current value and issues and returns to PhaseEditing.
func (e *Engine[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = e.spec.Defaults()
	e.issues = nil
	e.phase = types.PhaseEditing
	e.delivered = nil
}

// SetInitialState copies every non-zero value of initial onto the form.
func (e *Engine[T]) SetInitialState(initial T) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	patches, err := patch.GeneratePatchesFromInitial(e.state, initial)
	if err != nil {
		return fmt.Errorf("failed to generate patches from initial values: %w", err)
	}
	if err := e.applyLocked(patches); err != nil {
		return fmt.Errorf("failed to apply initial values: %w", err)
	}
	return nil
}

// State returns a deep copy of the current value. If the copy fails the
// error is logged and the live value is returned.
func (e *Engine[T]) State() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot, err := clone(e.state)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to copy state")
		return e.state
	}
	return snapshot
}

// Issues returns the result of the last validation.
func (e *Engine[T]) Issues() []types.FieldInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneIssues(e.issues)
}

func (e *Engine[T]) Phase() types.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine[T]) Summary() string {
	return e.spec.Summary(e.State())
}

func (e *Engine[T]) AllowedPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allowedPathsLocked()
}

func (e *Engine[T]) allowedPathsLocked() []string {
	paths := make([]string, 0, len(e.allowedPaths))
	for path := range e.allowedPaths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (e *Engine[T]) CreateCheckpoint() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	checkpoint := Checkpoint[T]{
		Version:      checkpointVersion,
		Phase:        e.phase,
		FormState:    e.state,
		Timestamp:    e.now(),
		AllowedPaths: e.allowedPathsLocked(),
		Issues:       e.issues,
	}

	data, err := sonic.Marshal(checkpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return data, nil
}

// RestoreCheckpoint replaces phase, state and issues with the checkpoint's.
// The allowed paths stay those of the FormSpec.
func (e *Engine[T]) RestoreCheckpoint(data []byte) error {
	var checkpoint Checkpoint[T]
	if err := sonic.Unmarshal(data, &checkpoint); err != nil {
		return fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	if checkpoint.Version != checkpointVersion {
		return fmt.Errorf("%w: %s (expected %s)", ErrIncompatibleFormat, checkpoint.Version, checkpointVersion)
	}
	switch checkpoint.Phase {
	case types.PhaseEditing, types.PhaseSubmitted:
	default:
		return fmt.Errorf("unknown phase in checkpoint: %q", checkpoint.Phase)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkState(checkpoint.FormState); err != nil {
		return fmt.Errorf("failed to restore checkpoint: %w", err)
	}
	e.phase = checkpoint.Phase
	e.state = checkpoint.FormState
	e.issues = checkpoint.Issues
	e.delivered = nil
	return nil
}

func clone[T any](v T) (T, error) {
	var out T
	data, err := sonic.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("failed to copy state: %w", err)
	}
	if err := sonic.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to copy state: %w", err)
	}
	return out, nil
}

func cloneIssues(issues []types.FieldInfo) []types.FieldInfo {
	if issues == nil {
		return nil
	}
	return append([]types.FieldInfo(nil), issues...)
}
