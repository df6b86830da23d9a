package validation

import (
	"fmt"

	"github.com/tbxark/formengine/types"
)

type entry[T any] struct {
	pointer     string
	displayName string
	message     string
	check       func(current T) bool

	// indexed entries
	count   func(current T) int
	checkAt func(current T, index int) bool
	when    func(current T) bool
}

// Rules is an ordered rule table. Every rule is evaluated; when several rules
// fail for the same pointer only the first one is reported.
type Rules[T any] struct {
	entries []entry[T]
}

func NewRules[T any]() *Rules[T] {
	return &Rules[T]{}
}

// Field adds a rule; check reports whether the value is valid.
func (r *Rules[T]) Field(pointer, displayName, message string, check func(current T) bool) *Rules[T] {
	r.entries = append(r.entries, entry[T]{
		pointer:     pointer,
		displayName: displayName,
		message:     message,
		check:       check,
	})
	return r
}

// Each adds a rule evaluated for every index in [0, count). pointerFormat
// takes a single %d verb. when gates the whole rule and may be nil.
func (r *Rules[T]) Each(pointerFormat, displayName, message string, count func(current T) int, when func(current T) bool, check func(current T, index int) bool) *Rules[T] {
	r.entries = append(r.entries, entry[T]{
		pointer:     pointerFormat,
		displayName: displayName,
		message:     message,
		count:       count,
		checkAt:     check,
		when:        when,
	})
	return r
}

func (r *Rules[T]) Validate(current T) []types.FieldInfo {
	var out []types.FieldInfo
	failed := make(map[string]bool)
	report := func(pointer, displayName, message string) {
		if failed[pointer] {
			return
		}
		failed[pointer] = true
		out = append(out, types.FieldInfo{
			JSONPointer: pointer,
			DisplayName: displayName,
			Description: message,
			Required:    true,
		})
	}

	for _, e := range r.entries {
		if e.checkAt == nil {
			if !e.check(current) {
				report(e.pointer, e.displayName, e.message)
			}
			continue
		}
		if e.when != nil && !e.when(current) {
			continue
		}
		n := e.count(current)
		for i := 0; i < n; i++ {
			if !e.checkAt(current, i) {
				report(fmt.Sprintf(e.pointer, i), e.displayName, e.message)
			}
		}
	}
	return out
}
