package registration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tbxark/formengine"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
	"github.com/tbxark/formengine/validation"
)

// fieldPointers maps the names accepted by SetField to their JSON pointer.
var fieldPointers = map[string]string{
	"fullName":      PointerFullName,
	"email":         PointerEmail,
	"age":           PointerAge,
	"gender":        PointerGender,
	"city":          PointerCity,
	"state":         PointerState,
	"dateOfBirth":   PointerDateOfBirth,
	"agreedToTerms": PointerAgreedToTerms,
}

// FieldGuidance describes the expected value of each pointer for callers that
// fill the form from free text.
func FieldGuidance() map[string]string {
	return map[string]string{
		PointerFullName:      "the person's full name",
		PointerEmail:         "an email address such as name@example.com",
		PointerAge:           "age in whole years, greater than 0",
		PointerGender:        "one of male, female, other",
		PointerDateOfBirth:   "RFC 3339 timestamp, e.g. 1990-04-12T00:00:00Z",
		PointerFile:          `object {"name", "mimeType", "size"}; mimeType image/jpeg, image/png or application/pdf`,
		"/skills/-/name":     "one skill per entry; add entries with path /skills/-",
		PointerAgreedToTerms: "true only if the user explicitly agrees to the terms",
	}
}

// FieldNames lists the names SetField accepts, in form order.
func FieldNames() []string {
	return []string{"fullName", "email", "age", "gender", "city", "state", "dateOfBirth", "agreedToTerms"}
}

type formSpec struct {
	validator validation.Validator[FormState]
}

func (formSpec) Defaults() FormState {
	return NewFormState()
}

func (s formSpec) Validator() validation.Validator[FormState] {
	return s.validator
}

func (formSpec) AllowedJSONPointers() []string {
	return []string{
		PointerFullName,
		PointerEmail,
		PointerAge,
		PointerGender,
		PointerCity,
		PointerState,
		PointerDateOfBirth,
		PointerFile,
		PointerSkills,
		PointerSkills + "/-",
		PointerSkills + "/-/name",
		PointerAgreedToTerms,
	}
}

func (formSpec) Summary(current FormState) string {
	return current.Summary()
}

type config struct {
	variant Variant
	logger  zerolog.Logger
	sinks   []formengine.Sink[FormState]
	now     func() time.Time
}

type Option func(*config)

func WithVariant(variant Variant) Option {
	return func(c *config) {
		c.variant = variant
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSink adds a receiver for the submitted form.
func WithSink(sink formengine.Sink[FormState]) Option {
	return func(c *config) {
		c.sinks = append(c.sinks, sink)
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// FormEngine owns one registration form. Every edit is applied as a single
// JSON patch, so the state is always either the old or the new value.
type FormEngine struct {
	engine  *formengine.Engine[FormState]
	variant Variant
	logger  zerolog.Logger
}

func NewFormEngine(opts ...Option) (*FormEngine, error) {
	cfg := config{variant: VariantManual, logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	validator, err := NewValidator(cfg.variant)
	if err != nil {
		return nil, err
	}
	engineOpts := []formengine.Option[FormState]{
		formengine.WithLogger[FormState](cfg.logger),
		formengine.WithClock[FormState](cfg.now),
		formengine.WithStateCheck[FormState](checkSkills),
	}
	for _, sink := range cfg.sinks {
		engineOpts = append(engineOpts, formengine.WithSink[FormState](sink))
	}
	engine, err := formengine.New[FormState](formSpec{validator: validator}, engineOpts...)
	if err != nil {
		return nil, err
	}
	return &FormEngine{
		engine:  engine,
		variant: cfg.variant,
		logger:  cfg.logger.With().Str("validator", cfg.variant.String()).Logger(),
	}, nil
}

// SetField writes a scalar field. city and state write into the address.
func (f *FormEngine) SetField(name string, value any) error {
	pointer, ok := fieldPointers[name]
	if !ok {
		return unknownField(name)
	}
	coerced, err := checkFieldValue(name, value)
	if err != nil {
		return err
	}
	return f.engine.Apply([]patch.Operation{patch.Replace(pointer, coerced)})
}

func checkFieldValue(name string, value any) (any, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %s cannot hold %T", ErrFieldType, name, value)
	}
	switch name {
	case "age":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		}
		return nil, mismatch()
	case "gender":
		switch v := value.(type) {
		case Gender:
			return string(v), nil
		case string:
			return v, nil
		}
		return nil, mismatch()
	case "dateOfBirth":
		switch v := value.(type) {
		case nil:
			return nil, nil
		case time.Time:
			return v, nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		}
		return nil, mismatch()
	case "agreedToTerms":
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, mismatch()
	default:
		if v, ok := value.(string); ok {
			return v, nil
		}
		return nil, mismatch()
	}
}

func unknownField(name string) error {
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownField, name, strings.Join(FieldNames(), ", "))
}

// SetFieldText writes a field from raw text input. Text that does not parse
// as the field's type is stored as the field's empty value.
func (f *FormEngine) SetFieldText(name, raw string) error {
	if _, ok := fieldPointers[name]; !ok {
		return unknownField(name)
	}
	switch name {
	case "age":
		age, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			age = 0
		}
		return f.SetField(name, age)
	case "dateOfBirth":
		dob, ok := ParseDate(raw)
		if !ok {
			return f.SetField(name, nil)
		}
		return f.SetField(name, dob)
	case "agreedToTerms":
		return f.SetField(name, ParseBool(raw))
	default:
		return f.SetField(name, raw)
	}
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "02/01/2006"}

// ParseDate accepts YYYY-MM-DD, RFC 3339 and DD/MM/YYYY.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool is lenient: true, yes, on and 1 are true, anything else false.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

// SetFile attaches a file reference. nil removes the attachment.
func (f *FormEngine) SetFile(file *File) error {
	if file == nil {
		return f.engine.Apply([]patch.Operation{patch.Remove(PointerFile)})
	}
	return f.engine.Apply([]patch.Operation{patch.Replace(PointerFile, *file)})
}

func (f *FormEngine) SetSkillAt(index int, name string) error {
	return f.engine.Update(func(current FormState) ([]patch.Operation, error) {
		if err := checkIndex(current, index); err != nil {
			return nil, err
		}
		return []patch.Operation{patch.Replace(fmt.Sprintf(skillNamePointer, index), name)}, nil
	})
}

// AddSkill appends a blank skill.
func (f *FormEngine) AddSkill() error {
	return f.engine.Apply([]patch.Operation{patch.Add(PointerSkills+"/-", Skill{})})
}

// RemoveSkillAt removes the skill at index. The last remaining skill is never
// removed; the call is then a no-op.
func (f *FormEngine) RemoveSkillAt(index int) error {
	return f.engine.Update(func(current FormState) ([]patch.Operation, error) {
		if err := checkIndex(current, index); err != nil {
			return nil, err
		}
		if len(current.Skills) == 1 {
			f.logger.Debug().Int("index", index).Msg("kept last skill")
			return nil, nil
		}
		return []patch.Operation{patch.Remove(fmt.Sprintf("%s/%d", PointerSkills, index))}, nil
	})
}

func checkIndex(current FormState, index int) error {
	if index < 0 || index >= len(current.Skills) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(current.Skills))
	}
	return nil
}

func (f *FormEngine) SetAgreed(agreed bool) error {
	return f.engine.Apply([]patch.Operation{patch.Replace(PointerAgreedToTerms, agreed)})
}

// ValidateAndSubmit validates the whole form. Without errors the form is
// handed to every sink once and the engine becomes submitted. The error is
// only set when a sink fails or the form was already submitted.
func (f *FormEngine) ValidateAndSubmit(ctx context.Context) (ValidationErrors, error) {
	issues, err := f.engine.Submit(ctx)
	if err != nil {
		return ValidationErrors{}, err
	}
	errs := NewValidationErrors(issues)
	if errs.Empty() {
		f.logger.Info().Msg("registration submitted")
	} else {
		f.logger.Debug().Int("errors", errs.Count()).Msg("registration rejected")
	}
	return errs, nil
}

// Validate checks the form without submitting it.
func (f *FormEngine) Validate() ValidationErrors {
	return NewValidationErrors(f.engine.Validate())
}

func (f *FormEngine) State() FormState {
	return f.engine.State()
}

// Errors returns the result of the last validation.
func (f *FormEngine) Errors() ValidationErrors {
	return NewValidationErrors(f.engine.Issues())
}

func (f *FormEngine) Issues() []types.FieldInfo {
	return f.engine.Issues()
}

func (f *FormEngine) Phase() types.Phase {
	return f.engine.Phase()
}

func (f *FormEngine) Variant() Variant {
	return f.variant
}

// Reset discards all input and reopens a submitted form.
func (f *FormEngine) Reset() {
	f.engine.Reset()
}

func (f *FormEngine) Prefill(initial FormState) error {
	return f.engine.SetInitialState(initial)
}

func (f *FormEngine) CreateCheckpoint() ([]byte, error) {
	return f.engine.CreateCheckpoint()
}

func (f *FormEngine) RestoreCheckpoint(data []byte) error {
	return f.engine.RestoreCheckpoint(data)
}

// ApplyPatch applies operations produced elsewhere, such as by an assistant.
// A patch that would leave the form without skills is rejected.
func (f *FormEngine) ApplyPatch(ops []patch.Operation) error {
	return f.engine.Apply(ops)
}

func checkSkills(state FormState) error {
	if len(state.Skills) == 0 {
		return ErrNoSkills
	}
	return nil
}

func (f *FormEngine) AllowedPaths() []string {
	return f.engine.AllowedPaths()
}

// Engine exposes the underlying patch engine for callers that produce patch
// operations themselves.
func (f *FormEngine) Engine() *formengine.Engine[FormState] {
	return f.engine
}
