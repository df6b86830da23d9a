package main

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"
	"github.com/tbxark/formengine/assist"
	"github.com/tbxark/formengine/registration"
	"github.com/tbxark/formengine/types"
)

// chatModelFactory is replaced in tests.
var chatModelFactory = func(cmd *cobra.Command, a *app) (model.ToolCallingChatModel, error) {
	apiKey := a.v.GetString("assist.api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("assist.api_key is not set (config file or FORMENGINE_ASSIST_API_KEY)")
	}
	return openai.NewChatModel(cmd.Context(), &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: a.v.GetString("assist.base_url"),
		Model:   a.v.GetString("assist.model"),
	})
}

func newAssistCmd(a *app) *cobra.Command {
	var submit bool
	cmd := &cobra.Command{
		Use:   "assist [text...]",
		Short: "Fill the form from free text with a chat model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatModel, err := chatModelFactory(cmd, a)
			if err != nil {
				return err
			}
			generator, err := assist.NewPatchGenerator[registration.FormState](chatModel)
			if err != nil {
				return err
			}
			form, err := a.newForm()
			if err != nil {
				return err
			}
			form.Validate()

			assistant := assist.NewAssistant[registration.FormState](generator, registration.FieldGuidance(), a.logger)
			ops, err := assistant.Fill(cmd.Context(), form, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "applied %d operation(s)\n", len(ops))
			fmt.Fprintln(a.out, form.State().Summary())

			if submit {
				if _, err := form.ValidateAndSubmit(cmd.Context()); err != nil {
					return err
				}
			} else {
				form.Validate()
			}
			fmt.Fprintln(a.out, types.FormatStatus(form.Phase(), form.Issues()))
			if issues := form.Issues(); len(issues) > 0 {
				fmt.Fprintln(a.out, types.FormatIssues(issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the form when it validates")
	cmd.Flags().String("model", "", "chat model name (overrides assist.model)")
	_ = a.v.BindPFlag("assist.model", cmd.Flags().Lookup("model"))
	return cmd
}
