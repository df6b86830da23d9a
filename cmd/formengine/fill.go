package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/tbxark/formengine/registration"
	"github.com/tbxark/formengine/types"
	"gopkg.in/yaml.v3"
)

// Event is one step of a fill script.
type Event struct {
	Op    string `yaml:"op"`
	Field string `yaml:"field,omitempty"`
	Value string `yaml:"value,omitempty"`
	Index int    `yaml:"index,omitempty"`
	Name  string `yaml:"name,omitempty"`
	MIME  string `yaml:"mime,omitempty"`
	Size  int64  `yaml:"size,omitempty"`
}

type Script struct {
	Events []Event `yaml:"events"`
}

func newFillCmd(a *app) *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Apply a YAML script of form events",
		Long: `Apply a YAML script of form events and print the resulting state.

Example script:
  events:
    - {op: set, field: fullName, value: Ada Lovelace}
    - {op: set, field: age, value: "36"}
    - {op: file, name: cv.pdf, mime: application/pdf, size: 2048}
    - {op: skill, index: 0, name: mathematics}
    - {op: addSkill}
    - {op: removeSkill, index: 1}
    - {op: agree, value: "yes"}
    - {op: submit}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(scriptPath)
			if err != nil {
				return err
			}
			form, err := a.newForm()
			if err != nil {
				return err
			}
			return runScript(cmd.Context(), form, script, a.out)
		},
	}
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "path to the event script (- for stdin)")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func loadScript(path string) (*Script, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &script, nil
}

func runScript(ctx context.Context, form *registration.FormEngine, script *Script, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for i, ev := range script.Events {
		if err := applyEvent(ctx, form, ev, out); err != nil {
			return fmt.Errorf("event %d (%s): %w", i+1, ev.Op, err)
		}
	}

	state, err := sonic.ConfigStd.MarshalIndent(form.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	fmt.Fprintf(out, "# State:\n%s\n", state)
	fmt.Fprintln(out, types.FormatStatus(form.Phase(), form.Issues()))
	return nil
}

func applyEvent(ctx context.Context, form *registration.FormEngine, ev Event, out io.Writer) error {
	switch ev.Op {
	case "set":
		return form.SetFieldText(ev.Field, ev.Value)
	case "file":
		if ev.MIME == "" && ev.Name == "" {
			return form.SetFile(nil)
		}
		return form.SetFile(&registration.File{Name: ev.Name, MIMEType: ev.MIME, Size: ev.Size})
	case "skill":
		return form.SetSkillAt(ev.Index, ev.Name)
	case "addSkill":
		return form.AddSkill()
	case "removeSkill":
		return form.RemoveSkillAt(ev.Index)
	case "agree":
		return form.SetAgreed(ev.Value == "" || registration.ParseBool(ev.Value))
	case "validate":
		form.Validate()
		printIssues(out, form)
		return nil
	case "submit":
		if _, err := form.ValidateAndSubmit(ctx); err != nil {
			return err
		}
		printIssues(out, form)
		return nil
	case "reset":
		form.Reset()
		return nil
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
}

func printIssues(out io.Writer, form *registration.FormEngine) {
	issues := form.Issues()
	fmt.Fprintln(out, types.FormatStatus(form.Phase(), issues))
	if len(issues) > 0 {
		fmt.Fprintln(out, types.FormatIssues(issues))
	}
}
