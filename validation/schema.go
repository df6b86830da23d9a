package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/tbxark/formengine/types"
)

// Schema validates the JSON form of T against an OpenAPI schema.
type Schema[T any] struct {
	schema   *openapi3.Schema
	messages map[string]string
	names    map[string]string
}

func NewSchema[T any](schema *openapi3.Schema) *Schema[T] {
	return &Schema[T]{
		schema:   schema,
		messages: make(map[string]string),
		names:    make(map[string]string),
	}
}

// Message sets the text for a failing schema keyword (minLength, pattern,
// enum, ...) at pointer. An empty keyword matches any keyword. Array indices
// in pointer are written as "-".
func (s *Schema[T]) Message(pointer, keyword, message string) *Schema[T] {
	s.messages[pointer+"|"+keyword] = message
	return s
}

func (s *Schema[T]) DisplayName(pointer, name string) *Schema[T] {
	s.names[pointer] = name
	return s
}

func (s *Schema[T]) Validate(current T) []types.FieldInfo {
	raw, err := sonic.Marshal(current)
	if err != nil {
		return []types.FieldInfo{{Description: fmt.Sprintf("failed to marshal form: %v", err)}}
	}
	var value any
	if err := sonic.Unmarshal(raw, &value); err != nil {
		return []types.FieldInfo{{Description: fmt.Sprintf("failed to unmarshal form: %v", err)}}
	}

	err = s.schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var issues []types.FieldInfo
	for _, e := range flattenErrors(err) {
		pointer, keyword, reason := "", "", e.Error()
		var schemaErr *openapi3.SchemaError
		if errors.As(e, &schemaErr) {
			if tokens := schemaErr.JSONPointer(); len(tokens) > 0 {
				pointer = "/" + strings.Join(tokens, "/")
			}
			keyword = schemaErr.SchemaField
			reason = schemaErr.Reason
		}
		issues = append(issues, types.FieldInfo{
			JSONPointer: pointer,
			DisplayName: s.displayName(pointer),
			Description: s.message(pointer, keyword, reason),
			Required:    true,
		})
	}
	return sortByFieldOrder[T](issues)
}

func (s *Schema[T]) message(pointer, keyword, reason string) string {
	normalized := NormalizePointer(pointer)
	if msg, ok := s.messages[normalized+"|"+keyword]; ok {
		return msg
	}
	if msg, ok := s.messages[normalized+"|"]; ok {
		return msg
	}
	return reason
}

func (s *Schema[T]) displayName(pointer string) string {
	if name, ok := s.names[NormalizePointer(pointer)]; ok {
		return name
	}
	return lastToken(pointer)
}

func flattenErrors(err error) []error {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		return []error{err}
	}
	var out []error
	for _, e := range multi {
		out = append(out, flattenErrors(e)...)
	}
	return out
}

// ReflectJSONSchema derives the JSON schema of T from its json and jsonschema
// struct tags. Definitions are inlined.
func ReflectJSONSchema[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	return r.Reflect(new(T))
}

// SchemaFromStruct converts the reflected JSON schema of T into an OpenAPI
// schema that kin-openapi can validate against.
func SchemaFromStruct[T any]() (*openapi3.Schema, error) {
	raw, err := sonic.Marshal(ReflectJSONSchema[T]())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	var doc map[string]any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}
	stripDraftKeywords(doc)

	raw, err = sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OpenAPI schema: %w", err)
	}
	schema := openapi3.NewSchema()
	if err := schema.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAPI schema: %w", err)
	}
	return schema, nil
}

var draftKeywords = []string{"$schema", "$id", "$defs", "$ref", "$comment", "$anchor"}

func stripDraftKeywords(node any) {
	switch v := node.(type) {
	case map[string]any:
		for _, key := range draftKeywords {
			delete(v, key)
		}
		for _, child := range v {
			stripDraftKeywords(child)
		}
	case []any:
		for _, child := range v {
			stripDraftKeywords(child)
		}
	}
}

// Property walks dotted property names ("address.city") and returns the nested
// schema, or nil when it does not exist. Array items are addressed with "-".
func Property(schema *openapi3.Schema, path string) *openapi3.Schema {
	cur := schema
	for _, name := range strings.Split(path, ".") {
		if cur == nil {
			return nil
		}
		if name == "-" {
			if cur.Items == nil {
				return nil
			}
			cur = cur.Items.Value
			continue
		}
		ref, ok := cur.Properties[name]
		if !ok || ref == nil {
			return nil
		}
		cur = ref.Value
	}
	return cur
}
