// Package validation turns a form value into a list of field failures. The
// same form can be checked by a hand-written rule table, by struct tags via
// go-playground/validator, or by a JSON schema via kin-openapi.
package validation

import (
	"github.com/tbxark/formengine/types"
)

type Validator[T any] interface {
	Validate(current T) []types.FieldInfo
}

type Func[T any] func(current T) []types.FieldInfo

func (f Func[T]) Validate(current T) []types.FieldInfo {
	return f(current)
}

type combined[T any] struct {
	validators []Validator[T]
}

// Combine runs every validator and keeps the first failure reported for each
// pointer, in order of appearance.
func Combine[T any](validators ...Validator[T]) Validator[T] {
	return &combined[T]{validators: validators}
}

func (c *combined[T]) Validate(current T) []types.FieldInfo {
	var out []types.FieldInfo
	seen := make(map[string]bool)
	for _, v := range c.validators {
		if v == nil {
			continue
		}
		for _, issue := range v.Validate(current) {
			if seen[issue.JSONPointer] {
				continue
			}
			seen[issue.JSONPointer] = true
			out = append(out, issue)
		}
	}
	return out
}
