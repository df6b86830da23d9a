package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
)

// Struct validates T through its `validate` struct tags. Failures are keyed by
// JSON pointer built from the json tag names, and messages are looked up by
// normalised pointer and failing tag.
type Struct[T any] struct {
	validate *validator.Validate
	messages map[string]string
	names    map[string]string
}

func NewStruct[T any]() *Struct[T] {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := patch.JSONFieldName(field)
		if name == "-" {
			return ""
		}
		return name
	})
	return &Struct[T]{
		validate: v,
		messages: make(map[string]string),
		names:    make(map[string]string),
	}
}

// RegisterValidation adds a custom field-level tag.
func (s *Struct[T]) RegisterValidation(tag string, fn validator.Func) error {
	return s.validate.RegisterValidation(tag, fn)
}

// RegisterStructValidation adds a cross-field rule for T. Report failures with
// sl.ReportError using json names, e.g. "skills" or "skills[0].name".
func (s *Struct[T]) RegisterStructValidation(fn validator.StructLevelFunc) {
	var zero T
	s.validate.RegisterStructValidation(fn, zero)
}

// Message sets the text for a failing tag at pointer. An empty tag matches
// any tag. Array indices in pointer are written as "-".
func (s *Struct[T]) Message(pointer, tag, message string) *Struct[T] {
	s.messages[pointer+"|"+tag] = message
	return s
}

func (s *Struct[T]) DisplayName(pointer, name string) *Struct[T] {
	s.names[pointer] = name
	return s
}

func (s *Struct[T]) Validate(current T) []types.FieldInfo {
	err := s.validate.Struct(current)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []types.FieldInfo{{JSONPointer: "", Description: err.Error()}}
	}

	issues := make([]types.FieldInfo, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		pointer := namespaceToPointer(fe.Namespace())
		issues = append(issues, types.FieldInfo{
			JSONPointer: pointer,
			DisplayName: s.displayName(pointer),
			Description: s.message(pointer, fe),
			Required:    true,
		})
	}
	return sortByFieldOrder[T](issues)
}

func (s *Struct[T]) message(pointer string, fe validator.FieldError) string {
	normalized := NormalizePointer(pointer)
	if msg, ok := s.messages[normalized+"|"+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := s.messages[normalized+"|"]; ok {
		return msg
	}
	return fe.Error()
}

func (s *Struct[T]) displayName(pointer string) string {
	if name, ok := s.names[NormalizePointer(pointer)]; ok {
		return name
	}
	return lastToken(pointer)
}

// namespaceToPointer converts "FormState.skills[0].name" to "/skills/0/name".
func namespaceToPointer(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	} else {
		return ""
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	namespace = strings.ReplaceAll(namespace, "]", "")
	var sb strings.Builder
	for _, segment := range strings.Split(namespace, ".") {
		if segment == "" {
			continue
		}
		sb.WriteString("/")
		sb.WriteString(segment)
	}
	return sb.String()
}
