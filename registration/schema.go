package registration

import (
	"fmt"

	"github.com/eino-contrib/jsonschema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/tbxark/formengine/validation"
)

// JSONSchema is the JSON schema of FormState as reflected from its tags.
func JSONSchema() *jsonschema.Schema {
	s := validation.ReflectJSONSchema[FormState]()
	s.Title = "Registration"
	s.Description = "Registration form"
	return s
}

// FormSchema is the OpenAPI form of JSONSchema with the constraints struct
// tags cannot carry: the email pattern and the terms checkbox.
func FormSchema() (*openapi3.Schema, error) {
	schema, err := validation.SchemaFromStruct[FormState]()
	if err != nil {
		return nil, err
	}
	email := validation.Property(schema, "email")
	if email == nil {
		return nil, fmt.Errorf("schema has no email property")
	}
	email.Pattern = emailPattern.String()

	terms := validation.Property(schema, "agreedToTerms")
	if terms == nil {
		return nil, fmt.Errorf("schema has no agreedToTerms property")
	}
	terms.Enum = []any{true}
	return schema, nil
}
