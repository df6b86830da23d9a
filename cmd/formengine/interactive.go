package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"github.com/tbxark/formengine/registration"
	"github.com/tbxark/formengine/types"
)

var ErrAborted = errors.New("prompt aborted")

type InputConfig struct {
	Message string
	Default string
	Help    string
}

type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// PromptDriver asks the user for values. The survey implementation talks to
// the terminal; tests substitute a scripted one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	for i, option := range cfg.Options {
		if option == out {
			return i, nil
		}
	}
	return -1, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Fill the form through terminal prompts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.newForm()
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), &surveyDriver{out: a.out}, form)
		},
	}
}

// prompt groups the questions for one field of the form.
type prompt string

const (
	promptFullName    prompt = "fullName"
	promptEmail       prompt = "email"
	promptAge         prompt = "age"
	promptGender      prompt = "gender"
	promptCity        prompt = "city"
	promptState       prompt = "state"
	promptDateOfBirth prompt = "dateOfBirth"
	promptFile        prompt = "file"
	promptSkills      prompt = "skills"
	promptTerms       prompt = "agreedToTerms"
)

var allPrompts = []prompt{
	promptFullName, promptEmail, promptAge, promptGender, promptCity,
	promptState, promptDateOfBirth, promptFile, promptSkills, promptTerms,
}

var textLabels = map[prompt]string{
	promptFullName:    "Full Name",
	promptEmail:       "Email",
	promptAge:         "Age",
	promptCity:        "City",
	promptState:       "State",
	promptDateOfBirth: "Date of Birth (YYYY-MM-DD)",
}

var genderOptions = []registration.Gender{registration.GenderMale, registration.GenderFemale, registration.GenderOther}

var mimeOptions = []string{"image/jpeg", "image/png", "application/pdf", "text/plain"}

const maxRounds = 5

// runInteractive asks for every field, submits, and asks again for the fields
// that failed until the form is accepted.
func runInteractive(ctx context.Context, driver PromptDriver, form *registration.FormEngine) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pending := allPrompts
	for round := 0; round < maxRounds; round++ {
		for _, p := range pending {
			if err := ask(ctx, driver, form, p); err != nil {
				return err
			}
		}
		errs, err := form.ValidateAndSubmit(ctx)
		if err != nil {
			return err
		}
		if errs.Empty() {
			return driver.Info(ctx, "Registration submitted.\n"+form.State().Summary())
		}
		msg := types.FormatStatus(form.Phase(), form.Issues()) + "\n" + types.FormatIssues(form.Issues())
		if err := driver.Info(ctx, msg); err != nil {
			return err
		}
		pending = failedPrompts(errs)
	}
	return fmt.Errorf("form still invalid after %d attempts", maxRounds)
}

func failedPrompts(errs registration.ValidationErrors) []prompt {
	failed := map[prompt]bool{
		promptFullName:    errs.FullName != nil,
		promptEmail:       errs.Email != nil,
		promptAge:         errs.Age != nil,
		promptGender:      errs.Gender != nil,
		promptCity:        errs.City != nil,
		promptState:       errs.State != nil,
		promptDateOfBirth: errs.DateOfBirth != nil,
		promptFile:        errs.File != nil,
		promptSkills:      errs.Skills != nil || len(errs.SkillAt) > 0,
		promptTerms:       errs.AgreedToTerms != nil,
	}
	var out []prompt
	for _, p := range allPrompts {
		if failed[p] {
			out = append(out, p)
		}
	}
	return out
}

func ask(ctx context.Context, driver PromptDriver, form *registration.FormEngine, p prompt) error {
	state := form.State()
	switch p {
	case promptGender:
		idx, err := driver.Select(ctx, SelectConfig{
			Message:      "Gender",
			Options:      []string{"male", "female", "other"},
			DefaultIndex: genderIndex(state.Gender),
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(genderOptions) {
			return form.SetField("gender", registration.GenderUnset)
		}
		return form.SetField("gender", genderOptions[idx])
	case promptFile:
		return askFile(ctx, driver, form)
	case promptSkills:
		return askSkills(ctx, driver, form)
	case promptTerms:
		agreed, err := driver.Confirm(ctx, ConfirmConfig{Message: "Do you agree to the terms?", Default: state.AgreedToTerms})
		if err != nil {
			return err
		}
		return form.SetAgreed(agreed)
	default:
		value, err := driver.Input(ctx, InputConfig{Message: textLabels[p], Default: currentText(state, p)})
		if err != nil {
			return err
		}
		return form.SetFieldText(string(p), value)
	}
}

func genderIndex(g registration.Gender) int {
	for i, option := range genderOptions {
		if option == g {
			return i
		}
	}
	return 0
}

func currentText(state registration.FormState, p prompt) string {
	switch p {
	case promptFullName:
		return state.FullName
	case promptEmail:
		return state.Email
	case promptAge:
		if state.Age == 0 {
			return ""
		}
		return strconv.Itoa(state.Age)
	case promptCity:
		return state.Address.City
	case promptState:
		return state.Address.State
	case promptDateOfBirth:
		if state.DateOfBirth == nil {
			return ""
		}
		return state.DateOfBirth.Format(time.DateOnly)
	}
	return ""
}

func askFile(ctx context.Context, driver PromptDriver, form *registration.FormEngine) error {
	attach, err := driver.Confirm(ctx, ConfirmConfig{Message: "Attach a file?", Help: "JPEG, PNG or PDF"})
	if err != nil {
		return err
	}
	if !attach {
		return form.SetFile(nil)
	}
	name, err := driver.Input(ctx, InputConfig{Message: "File name"})
	if err != nil {
		return err
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: "File type", Options: mimeOptions})
	if err != nil {
		return err
	}
	file := &registration.File{Name: name}
	if idx >= 0 && idx < len(mimeOptions) {
		file.MIMEType = mimeOptions[idx]
	}
	return form.SetFile(file)
}

// askSkills collects skills until an empty answer and replaces the current
// list with them.
func askSkills(ctx context.Context, driver PromptDriver, form *registration.FormEngine) error {
	var names []string
	for {
		name, err := driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Skill #%d", len(names)+1),
			Help:    "leave empty to finish",
		})
		if err != nil {
			return err
		}
		if name == "" {
			break
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		names = []string{""}
	}

	for len(form.State().Skills) > 1 {
		if err := form.RemoveSkillAt(len(form.State().Skills) - 1); err != nil {
			return err
		}
	}
	for i, name := range names {
		if i > 0 {
			if err := form.AddSkill(); err != nil {
				return err
			}
		}
		if err := form.SetSkillAt(i, name); err != nil {
			return err
		}
	}
	return nil
}
