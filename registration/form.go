// Package registration is the registration form: its value type, the three
// interchangeable validators and the FormEngine that edits and submits it.
package registration

import (
	"fmt"
	"strings"
	"time"
)

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Address struct {
	City  string `json:"city" validate:"required" jsonschema:"minLength=1"`
	State string `json:"state" validate:"required" jsonschema:"minLength=1"`
}

// File references an attachment by name and MIME type. The content is never
// read.
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType" validate:"oneof=image/jpeg image/png application/pdf" jsonschema:"enum=image/jpeg,enum=image/png,enum=application/pdf"`
	Size     int64  `json:"size"`
}

type Skill struct {
	Name string `json:"name"`
}

type FormState struct {
	FullName      string     `json:"fullName" validate:"required" jsonschema:"minLength=1,description=Full name of the registrant"`
	Email         string     `json:"email" validate:"required,email_simple" jsonschema:"minLength=1,description=Contact email address"`
	Age           int        `json:"age" validate:"gt=0" jsonschema:"minimum=1,description=Age in years; 0 means not given"`
	Gender        Gender     `json:"gender" validate:"oneof=male female other" jsonschema:"enum=male,enum=female,enum=other"`
	Address       Address    `json:"address"`
	DateOfBirth   *time.Time `json:"dateOfBirth" validate:"required" jsonschema:"description=Date of birth"`
	File          *File      `json:"file,omitempty" validate:"omitempty"`
	Skills        []Skill    `json:"skills" jsonschema:"minItems=1"`
	AgreedToTerms bool       `json:"agreedToTerms" validate:"eq=true"`
}

// NewFormState returns the defaults a new form starts with: every field empty
// and a single blank skill.
func NewFormState() FormState {
	return FormState{Skills: []Skill{{}}}
}

func (f FormState) HasNamedSkill() bool {
	for _, s := range f.Skills {
		if strings.TrimSpace(s.Name) != "" {
			return true
		}
	}
	return false
}

func (f FormState) Summary() string {
	var names []string
	for _, s := range f.Skills {
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	dob := "-"
	if f.DateOfBirth != nil {
		dob = f.DateOfBirth.Format(time.DateOnly)
	}
	file := "-"
	if f.File != nil {
		file = fmt.Sprintf("%s (%s)", f.File.Name, f.File.MIMEType)
	}
	return fmt.Sprintf("%s <%s>, age %d, %s, born %s, %s/%s, skills [%s], file %s, agreed %t",
		f.FullName, f.Email, f.Age, f.Gender, dob, f.Address.City, f.Address.State,
		strings.Join(names, ", "), file, f.AgreedToTerms)
}
