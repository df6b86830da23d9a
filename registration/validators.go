package registration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tbxark/formengine/validation"
)

const (
	PointerFullName      = "/fullName"
	PointerEmail         = "/email"
	PointerAge           = "/age"
	PointerGender        = "/gender"
	PointerCity          = "/address/city"
	PointerState         = "/address/state"
	PointerDateOfBirth   = "/dateOfBirth"
	PointerFile          = "/file"
	PointerFileMIMEType  = "/file/mimeType"
	PointerSkills        = "/skills"
	PointerAgreedToTerms = "/agreedToTerms"

	skillNamePointer = "/skills/%d/name"
)

const (
	MsgFullNameRequired = "Full Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email address"
	MsgAgePositive      = "Age must be greater than 0"
	MsgGenderRequired   = "Gender is required"
	MsgCityRequired     = "City is required"
	MsgStateRequired    = "State is required"
	MsgDOBRequired      = "Date of Birth is required"
	MsgFileType         = "File must be a JPEG, PNG or PDF"
	MsgSkillsRequired   = "At least one skill is required"
	MsgSkillRequired    = "Skill is required"
	MsgTermsRequired    = "You must agree to the terms"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+$`)

var allowedMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

var displayNames = map[string]string{
	PointerFullName:      "Full Name",
	PointerEmail:         "Email",
	PointerAge:           "Age",
	PointerGender:        "Gender",
	PointerCity:          "City",
	PointerState:         "State",
	PointerDateOfBirth:   "Date of Birth",
	PointerFileMIMEType:  "File",
	PointerSkills:        "Skills",
	"/skills/-/name":     "Skill",
	PointerAgreedToTerms: "Terms",
}

// Variant selects which of the interchangeable validators checks the form.
type Variant string

const (
	VariantManual Variant = "manual"
	VariantTags   Variant = "tags"
	VariantSchema Variant = "schema"
)

func (v Variant) String() string { return string(v) }

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantManual, "":
		return VariantManual, nil
	case VariantTags:
		return VariantTags, nil
	case VariantSchema:
		return VariantSchema, nil
	}
	return "", fmt.Errorf("unknown validator %q (want manual, tags or schema)", s)
}

// NewValidator builds the validator for variant.
func NewValidator(variant Variant) (validation.Validator[FormState], error) {
	switch variant {
	case VariantManual, "":
		return ManualValidator(), nil
	case VariantTags:
		return TagValidator()
	case VariantSchema:
		return SchemaValidator()
	}
	return nil, fmt.Errorf("unknown validator %q", variant)
}

func hasAllowedMIME(f *File) bool {
	return f == nil || allowedMIMETypes[f.MIMEType]
}

func skillRules(r *validation.Rules[FormState]) *validation.Rules[FormState] {
	return r.
		Field(PointerSkills, displayNames[PointerSkills], MsgSkillsRequired, FormState.HasNamedSkill).
		Each(skillNamePointer, "Skill", MsgSkillRequired,
			func(f FormState) int { return len(f.Skills) },
			func(f FormState) bool { return !f.HasNamedSkill() },
			func(f FormState, i int) bool { return strings.TrimSpace(f.Skills[i].Name) != "" },
		)
}

// ManualValidator checks every field with hand-written predicates.
func ManualValidator() validation.Validator[FormState] {
	r := validation.NewRules[FormState]().
		Field(PointerFullName, displayNames[PointerFullName], MsgFullNameRequired, func(f FormState) bool {
			return f.FullName != ""
		}).
		Field(PointerEmail, displayNames[PointerEmail], MsgEmailRequired, func(f FormState) bool {
			return f.Email != ""
		}).
		Field(PointerEmail, displayNames[PointerEmail], MsgEmailInvalid, func(f FormState) bool {
			return emailPattern.MatchString(f.Email)
		}).
		Field(PointerAge, displayNames[PointerAge], MsgAgePositive, func(f FormState) bool {
			return f.Age > 0
		}).
		Field(PointerGender, displayNames[PointerGender], MsgGenderRequired, func(f FormState) bool {
			return f.Gender.Valid()
		}).
		Field(PointerCity, displayNames[PointerCity], MsgCityRequired, func(f FormState) bool {
			return f.Address.City != ""
		}).
		Field(PointerState, displayNames[PointerState], MsgStateRequired, func(f FormState) bool {
			return f.Address.State != ""
		}).
		Field(PointerDateOfBirth, displayNames[PointerDateOfBirth], MsgDOBRequired, func(f FormState) bool {
			return f.DateOfBirth != nil
		}).
		Field(PointerFileMIMEType, displayNames[PointerFileMIMEType], MsgFileType, func(f FormState) bool {
			return hasAllowedMIME(f.File)
		})
	return skillRules(r).
		Field(PointerAgreedToTerms, displayNames[PointerAgreedToTerms], MsgTermsRequired, func(f FormState) bool {
			return f.AgreedToTerms
		})
}

// TagValidator checks the `validate` struct tags of FormState. The skills rule
// spans several fields and is registered as a struct-level validation.
func TagValidator() (validation.Validator[FormState], error) {
	v := validation.NewStruct[FormState]()
	err := v.RegisterValidation("email_simple", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register email_simple: %w", err)
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		form, ok := sl.Current().Interface().(FormState)
		if !ok || form.HasNamedSkill() {
			return
		}
		sl.ReportError(form.Skills, "skills", "Skills", "has_named_skill", "")
		for i, skill := range form.Skills {
			if strings.TrimSpace(skill.Name) == "" {
				sl.ReportError(skill.Name, fmt.Sprintf("skills[%d].name", i), fmt.Sprintf("Skills[%d].Name", i), "required", "")
			}
		}
	})

	v.Message(PointerFullName, "required", MsgFullNameRequired).
		Message(PointerEmail, "required", MsgEmailRequired).
		Message(PointerEmail, "email_simple", MsgEmailInvalid).
		Message(PointerAge, "", MsgAgePositive).
		Message(PointerGender, "", MsgGenderRequired).
		Message(PointerCity, "", MsgCityRequired).
		Message(PointerState, "", MsgStateRequired).
		Message(PointerDateOfBirth, "", MsgDOBRequired).
		Message(PointerFileMIMEType, "", MsgFileType).
		Message(PointerSkills, "", MsgSkillsRequired).
		Message("/skills/-/name", "", MsgSkillRequired).
		Message(PointerAgreedToTerms, "", MsgTermsRequired)
	for pointer, name := range displayNames {
		v.DisplayName(pointer, name)
	}
	return v, nil
}

// SchemaValidator checks FormState against the JSON schema reflected from its
// jsonschema tags. The skills rule cannot be expressed in the schema and is
// combined from a rule table.
func SchemaValidator() (validation.Validator[FormState], error) {
	schema, err := FormSchema()
	if err != nil {
		return nil, err
	}
	s := validation.NewSchema[FormState](schema).
		Message(PointerFullName, "", MsgFullNameRequired).
		Message(PointerEmail, "minLength", MsgEmailRequired).
		Message(PointerEmail, "pattern", MsgEmailInvalid).
		Message(PointerAge, "", MsgAgePositive).
		Message(PointerGender, "", MsgGenderRequired).
		Message(PointerCity, "", MsgCityRequired).
		Message(PointerState, "", MsgStateRequired).
		Message(PointerDateOfBirth, "", MsgDOBRequired).
		Message(PointerFileMIMEType, "", MsgFileType).
		Message(PointerSkills, "", MsgSkillsRequired).
		Message(PointerAgreedToTerms, "", MsgTermsRequired)
	for pointer, name := range displayNames {
		s.DisplayName(pointer, name)
	}
	skills := skillRules(validation.NewRules[FormState]())
	return validation.Sorted[FormState](validation.Combine[FormState](s, skills)), nil
}
