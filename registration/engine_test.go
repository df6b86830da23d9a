package registration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tbxark/formengine"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
)

var variants = []Variant{VariantManual, VariantTags, VariantSchema}

type submissions struct {
	forms []FormState
}

func (s *submissions) Submit(ctx context.Context, form FormState) error {
	s.forms = append(s.forms, form)
	return nil
}

func newEngine(t *testing.T, variant Variant, opts ...Option) (*FormEngine, *submissions) {
	t.Helper()
	sink := &submissions{}
	opts = append([]Option{WithVariant(variant), WithSink(sink)}, opts...)
	e, err := NewFormEngine(opts...)
	if err != nil {
		t.Fatalf("NewFormEngine(%s): %v", variant, err)
	}
	return e, sink
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// fillValid populates every field with a passing value.
func fillValid(t *testing.T, e *FormEngine) {
	t.Helper()
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	mustDo(t, e.SetField("fullName", "Ada Lovelace"))
	mustDo(t, e.SetField("email", "ada@example.com"))
	mustDo(t, e.SetField("age", 36))
	mustDo(t, e.SetField("gender", GenderFemale))
	mustDo(t, e.SetField("city", "London"))
	mustDo(t, e.SetField("state", "Greater London"))
	mustDo(t, e.SetField("dateOfBirth", dob))
	mustDo(t, e.SetSkillAt(0, "mathematics"))
	mustDo(t, e.SetAgreed(true))
}

func TestNewFormStateDefaults(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	want := FormState{Skills: []Skill{{}}}
	if diff := cmp.Diff(want, e.State()); diff != "" {
		t.Errorf("unexpected defaults (-want +got):\n%s", diff)
	}
	if e.Phase() != types.PhaseEditing {
		t.Errorf("phase = %s", e.Phase())
	}
	if !e.Errors().Empty() {
		t.Errorf("fresh form has errors: %+v", e.Errors())
	}
}

func TestValidFormSubmitsOnce(t *testing.T) {
	for _, variant := range variants {
		t.Run(variant.String(), func(t *testing.T) {
			e, sink := newEngine(t, variant)
			fillValid(t, e)

			errs, err := e.ValidateAndSubmit(context.Background())
			if err != nil {
				t.Fatalf("ValidateAndSubmit: %v", err)
			}
			if !errs.Empty() {
				t.Fatalf("unexpected errors: %+v", e.Issues())
			}
			if len(sink.forms) != 1 {
				t.Fatalf("sink received %d forms, want 1", len(sink.forms))
			}
			if diff := cmp.Diff(e.State(), sink.forms[0]); diff != "" {
				t.Errorf("submitted snapshot differs (-state +sink):\n%s", diff)
			}
			if e.Phase() != types.PhaseSubmitted {
				t.Errorf("phase = %s, want submitted", e.Phase())
			}

			if _, err := e.ValidateAndSubmit(context.Background()); !errors.Is(err, formengine.ErrSubmitted) {
				t.Errorf("second submit err = %v, want ErrSubmitted", err)
			}
			if err := e.SetField("fullName", "x"); !errors.Is(err, formengine.ErrSubmitted) {
				t.Errorf("SetField after submit err = %v, want ErrSubmitted", err)
			}
			if len(sink.forms) != 1 {
				t.Errorf("sink received %d forms after resubmit", len(sink.forms))
			}

			e.Reset()
			if e.Phase() != types.PhaseEditing {
				t.Errorf("phase after reset = %s", e.Phase())
			}
			if diff := cmp.Diff(NewFormState(), e.State()); diff != "" {
				t.Errorf("reset state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmptyFormReportsEveryRequiredField(t *testing.T) {
	want := ValidationErrors{
		FullName:      ptr(MsgFullNameRequired),
		Email:         ptr(MsgEmailRequired),
		Age:           ptr(MsgAgePositive),
		Gender:        ptr(MsgGenderRequired),
		City:          ptr(MsgCityRequired),
		State:         ptr(MsgStateRequired),
		DateOfBirth:   ptr(MsgDOBRequired),
		Skills:        ptr(MsgSkillsRequired),
		SkillAt:       map[int]string{0: MsgSkillRequired},
		AgreedToTerms: ptr(MsgTermsRequired),
	}
	for _, variant := range variants {
		t.Run(variant.String(), func(t *testing.T) {
			e, sink := newEngine(t, variant)
			errs, err := e.ValidateAndSubmit(context.Background())
			if err != nil {
				t.Fatalf("ValidateAndSubmit: %v", err)
			}
			if diff := cmp.Diff(want, errs); diff != "" {
				t.Errorf("unexpected errors (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(errs, e.Errors()); diff != "" {
				t.Errorf("stored errors differ (-returned +stored):\n%s", diff)
			}
			if len(sink.forms) != 0 {
				t.Error("invalid form reached the sink")
			}
			if e.Phase() != types.PhaseEditing {
				t.Errorf("phase = %s", e.Phase())
			}
		})
	}
}

func TestMissingFullName(t *testing.T) {
	for _, variant := range variants {
		t.Run(variant.String(), func(t *testing.T) {
			e, sink := newEngine(t, variant)
			fillValid(t, e)
			mustDo(t, e.SetField("fullName", ""))

			errs, err := e.ValidateAndSubmit(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(ValidationErrors{FullName: ptr(MsgFullNameRequired)}, errs); diff != "" {
				t.Errorf("unexpected errors (-want +got):\n%s", diff)
			}
			if len(sink.forms) != 0 {
				t.Error("sink called")
			}
		})
	}
}

func TestEmailRules(t *testing.T) {
	tests := []struct {
		email string
		want  *string
	}{
		{"", ptr(MsgEmailRequired)},
		{"not-an-email", ptr(MsgEmailInvalid)},
		{"a @b.com", ptr(MsgEmailInvalid)},
		{"a@b.com", nil},
	}
	for _, variant := range variants {
		for _, tt := range tests {
			t.Run(variant.String()+"/"+tt.email, func(t *testing.T) {
				e, _ := newEngine(t, variant)
				fillValid(t, e)
				mustDo(t, e.SetField("email", tt.email))
				errs := e.Validate()
				if diff := cmp.Diff(tt.want, errs.Email); diff != "" {
					t.Errorf("email error (-want +got):\n%s", diff)
				}
				if errs.Count() != boolToInt(tt.want != nil) {
					t.Errorf("Count = %d", errs.Count())
				}
			})
		}
	}
}

func TestFileMIMEType(t *testing.T) {
	tests := []struct {
		name string
		file *File
		want *string
	}{
		{"absent", nil, nil},
		{"png", &File{Name: "me.png", MIMEType: "image/png", Size: 10}, nil},
		{"jpeg", &File{Name: "me.jpg", MIMEType: "image/jpeg"}, nil},
		{"pdf", &File{Name: "cv.pdf", MIMEType: "application/pdf"}, nil},
		{"text", &File{Name: "notes.txt", MIMEType: "text/plain"}, ptr(MsgFileType)},
	}
	for _, variant := range variants {
		for _, tt := range tests {
			t.Run(variant.String()+"/"+tt.name, func(t *testing.T) {
				e, _ := newEngine(t, variant)
				fillValid(t, e)
				mustDo(t, e.SetFile(tt.file))
				if diff := cmp.Diff(tt.file, e.State().File); diff != "" {
					t.Errorf("stored file (-want +got):\n%s", diff)
				}
				if diff := cmp.Diff(tt.want, e.Validate().File); diff != "" {
					t.Errorf("file error (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestSetFileNilClears(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	mustDo(t, e.SetFile(&File{Name: "a.png", MIMEType: "image/png"}))
	mustDo(t, e.SetFile(nil))
	if e.State().File != nil {
		t.Errorf("file not cleared: %+v", e.State().File)
	}
	mustDo(t, e.SetFile(nil))
}

func TestSkills(t *testing.T) {
	e, _ := newEngine(t, VariantManual)

	mustDo(t, e.RemoveSkillAt(0))
	if diff := cmp.Diff([]Skill{{}}, e.State().Skills); diff != "" {
		t.Errorf("last skill removed (-want +got):\n%s", diff)
	}

	mustDo(t, e.SetSkillAt(0, "go"))
	before := e.State().Skills
	mustDo(t, e.AddSkill())
	if got := len(e.State().Skills); got != 2 {
		t.Fatalf("len(skills) = %d, want 2", got)
	}
	mustDo(t, e.RemoveSkillAt(1))
	if diff := cmp.Diff(before, e.State().Skills); diff != "" {
		t.Errorf("add then remove did not restore skills (-want +got):\n%s", diff)
	}

	mustDo(t, e.AddSkill())
	mustDo(t, e.SetSkillAt(1, "rust"))
	mustDo(t, e.RemoveSkillAt(0))
	if diff := cmp.Diff([]Skill{{Name: "rust"}}, e.State().Skills); diff != "" {
		t.Errorf("unexpected skills (-want +got):\n%s", diff)
	}

	for _, index := range []int{-1, 1, 5} {
		if err := e.SetSkillAt(index, "x"); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SetSkillAt(%d) err = %v, want ErrIndexOutOfRange", index, err)
		}
		if err := e.RemoveSkillAt(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveSkillAt(%d) err = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

func TestSkillErrors(t *testing.T) {
	for _, variant := range variants {
		t.Run(variant.String(), func(t *testing.T) {
			e, _ := newEngine(t, variant)
			fillValid(t, e)
			mustDo(t, e.SetSkillAt(0, "   "))
			mustDo(t, e.AddSkill())

			errs := e.Validate()
			want := ValidationErrors{
				Skills:  ptr(MsgSkillsRequired),
				SkillAt: map[int]string{0: MsgSkillRequired, 1: MsgSkillRequired},
			}
			if diff := cmp.Diff(want, errs); diff != "" {
				t.Errorf("unexpected errors (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]int{0, 1}, errs.SkillIndices()); diff != "" {
				t.Errorf("SkillIndices (-want +got):\n%s", diff)
			}

			mustDo(t, e.SetSkillAt(1, "go"))
			if errs := e.Validate(); !errs.Empty() {
				t.Errorf("one named skill should satisfy the form, got %+v", errs)
			}
		})
	}
}

func TestSetFieldRejectsBadInput(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	before := e.State()

	if err := e.SetField("nickname", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
	if err := e.SetField("skills", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
	if err := e.SetField("age", "ten"); !errors.Is(err, ErrFieldType) {
		t.Errorf("err = %v, want ErrFieldType", err)
	}
	if err := e.SetField("agreedToTerms", "yes"); !errors.Is(err, ErrFieldType) {
		t.Errorf("err = %v, want ErrFieldType", err)
	}
	if err := e.SetField("email", 42); !errors.Is(err, ErrFieldType) {
		t.Errorf("err = %v, want ErrFieldType", err)
	}
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Errorf("rejected input changed state (-want +got):\n%s", diff)
	}
}

func TestSetFieldKeepsOutOfRangeValues(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	mustDo(t, e.SetField("age", -4))
	mustDo(t, e.SetField("gender", "robot"))
	got := e.State()
	if got.Age != -4 || got.Gender != "robot" {
		t.Errorf("state = %+v", got)
	}
	errs := e.Validate()
	if errs.Age == nil || errs.Gender == nil {
		t.Errorf("expected age and gender errors, got %+v", errs)
	}
}

func TestSetFieldText(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	mustDo(t, e.SetFieldText("age", " 42 "))
	mustDo(t, e.SetFieldText("dateOfBirth", "1990-04-12"))
	mustDo(t, e.SetFieldText("agreedToTerms", "yes"))
	mustDo(t, e.SetFieldText("city", "Paris"))

	got := e.State()
	if got.Age != 42 || got.Address.City != "Paris" || !got.AgreedToTerms {
		t.Errorf("state = %+v", got)
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("dateOfBirth = %v", got.DateOfBirth)
	}

	mustDo(t, e.SetFieldText("age", "forty"))
	mustDo(t, e.SetFieldText("dateOfBirth", "yesterday"))
	mustDo(t, e.SetFieldText("agreedToTerms", "maybe"))
	got = e.State()
	if got.Age != 0 || got.DateOfBirth != nil || got.AgreedToTerms {
		t.Errorf("unparsable input should coerce to empty values, got %+v", got)
	}

	if err := e.SetFieldText("skills", "go"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, variant := range variants {
		t.Run(variant.String(), func(t *testing.T) {
			e, _ := newEngine(t, variant)
			mustDo(t, e.SetField("email", "nope"))
			mustDo(t, e.SetFile(&File{MIMEType: "text/plain"}))
			first, _ := e.ValidateAndSubmit(context.Background())
			second, _ := e.ValidateAndSubmit(context.Background())
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("validation not idempotent (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(e.Engine().Issues(), e.Issues()); diff != "" {
				t.Errorf("issues mismatch:\n%s", diff)
			}
		})
	}
}

func TestErrorsClearedOnSuccessfulValidation(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	if errs, _ := e.ValidateAndSubmit(context.Background()); errs.Empty() {
		t.Fatal("expected errors on empty form")
	}
	fillValid(t, e)
	if e.Errors().Empty() {
		t.Error("errors should persist until the next validation")
	}
	if errs, err := e.ValidateAndSubmit(context.Background()); err != nil || !errs.Empty() {
		t.Fatalf("ValidateAndSubmit = %+v, %v", errs, err)
	}
	if !e.Errors().Empty() {
		t.Errorf("errors not cleared: %+v", e.Errors())
	}
}

func TestSinkFailureKeepsEditing(t *testing.T) {
	boom := errors.New("sink down")
	e, err := NewFormEngine(WithSink(formengine.SinkFunc[FormState](func(context.Context, FormState) error {
		return boom
	})))
	if err != nil {
		t.Fatal(err)
	}
	fillValid(t, e)
	if _, err := e.ValidateAndSubmit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want sink error", err)
	}
	if e.Phase() != types.PhaseEditing {
		t.Errorf("phase = %s", e.Phase())
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	e, _ := newEngine(t, VariantTags)
	fillValid(t, e)
	mustDo(t, e.SetFile(&File{Name: "cv.pdf", MIMEType: "application/pdf", Size: 2048}))
	mustDo(t, e.AddSkill())
	if _, err := e.ValidateAndSubmit(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := e.CreateCheckpoint()
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := newEngine(t, VariantTags)
	if err := restored.RestoreCheckpoint(data); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(e.State(), restored.State()); diff != "" {
		t.Errorf("state (-want +got):\n%s", diff)
	}
	if restored.Phase() != e.Phase() {
		t.Errorf("phase = %s, want %s", restored.Phase(), e.Phase())
	}
}

func TestPrefill(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	mustDo(t, e.Prefill(FormState{
		Email:   "pre@fill.io",
		Address: Address{City: "Oslo"},
		Skills:  []Skill{{Name: "go"}, {Name: "sql"}},
	}))
	got := e.State()
	want := FormState{
		Email:   "pre@fill.io",
		Address: Address{City: "Oslo"},
		Skills:  []Skill{{Name: "go"}, {Name: "sql"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("prefilled state (-want +got):\n%s", diff)
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"": VariantManual, "Tags": VariantTags, " schema ": VariantSchema} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseVariant("zod"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func ptr(s string) *string { return &s }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestApplyPatchKeepsOneSkill(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	err := e.ApplyPatch([]patch.Operation{patch.Replace(PointerSkills, []Skill{})})
	if !errors.Is(err, ErrNoSkills) || !errors.Is(err, formengine.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrNoSkills", err)
	}
	mustDo(t, e.ApplyPatch([]patch.Operation{
		patch.Replace(PointerFullName, "Grace Hopper"),
		patch.Add(PointerSkills+"/-", Skill{Name: "cobol"}),
	}))
	got := e.State()
	if got.FullName != "Grace Hopper" || len(got.Skills) != 2 {
		t.Errorf("state = %+v", got)
	}
	if err := e.ApplyPatch([]patch.Operation{patch.Replace("/file/name", "x")}); err == nil {
		t.Error("expected error for a path outside the form")
	}
}

func TestRestoreRejectsMalformedCheckpoint(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	mustDo(t, e.SetField("fullName", "Ada"))
	before := e.State()

	err := e.RestoreCheckpoint([]byte(`{"version":"1.0","phase":"editing","form_state":{"skills":[]},"allowed_paths":["/fullName"]}`))
	if !errors.Is(err, ErrNoSkills) {
		t.Fatalf("err = %v, want ErrNoSkills", err)
	}
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Errorf("rejected checkpoint changed state (-want +got):\n%s", diff)
	}

	mustDo(t, e.RestoreCheckpoint([]byte(`{"version":"1.0","phase":"editing","form_state":{"fullName":"Grace","skills":[{"name":""}]},"allowed_paths":["/fullName"]}`)))
	if got := e.State().FullName; got != "Grace" {
		t.Errorf("fullName = %q", got)
	}
	if err := e.AddSkill(); err != nil {
		t.Errorf("AddSkill after restore: %v", err)
	}
	if err := e.SetField("email", "g@h.io"); err != nil {
		t.Errorf("SetField after restore: %v", err)
	}
}

func TestUnknownFieldListsNames(t *testing.T) {
	e, _ := newEngine(t, VariantManual)
	err := e.SetField("nickname", "x")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	for _, name := range FieldNames() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := map[string]bool{
		"true": true, "YES": true, " on ": true, "1": true,
		"false": false, "no": false, "off": false, "0": false, "y": false, "maybe": false, "": false,
	}
	for in, want := range tests {
		if got := ParseBool(in); got != want {
			t.Errorf("ParseBool(%q) = %t, want %t", in, got, want)
		}
	}
}
