package formengine

import (
	"github.com/tbxark/formengine/validation"
)

// FormSpec describes one kind of form. Implement it once per form type.
type FormSpec[T any] interface {
	// Defaults returns the value a freshly mounted form starts with.
	Defaults() T
	Validator() validation.Validator[T]
	// AllowedJSONPointers restricts which paths patches may touch. Returning
	// nil allows every pointer of T.
	AllowedJSONPointers() []string
	Summary(current T) string
}
