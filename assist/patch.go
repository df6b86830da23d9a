package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
)

const (
	updateFormToolName        = "update_form"
	updateFormToolDescription = "Generate RFC6902 JSON Patch operations to update form fields based on user input. Only include operations for information explicitly provided by the user."
)

type UpdateFormArgs struct {
	Ops []patch.Operation `json:"ops" jsonschema:"description=RFC6902 operations (add, replace or remove) against the form state"`
}

type Request[T any] struct {
	Input        string
	CurrentState T
	AllowedPaths []string
	Issues       []types.FieldInfo
	Guidance     map[string]string
}

type PatchGenerator[T any] struct {
	chain *Chain[*Request[T], UpdateFormArgs]
}

func NewPatchGenerator[T any](chatModel model.ToolCallingChatModel) (*PatchGenerator[T], error) {
	chain, err := NewChain[*Request[T], UpdateFormArgs](
		chatModel,
		buildPatchPrompt[T],
		updateFormToolName,
		updateFormToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &PatchGenerator[T]{chain: chain}, nil
}

// GeneratePatch asks the model for operations and checks them against
// req.AllowedPaths.
func (g *PatchGenerator[T]) GeneratePatch(ctx context.Context, req *Request[T]) ([]patch.Operation, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}
	if result == nil || len(result.Ops) == 0 {
		return nil, nil
	}
	if err := patch.ValidatePatchOperations(result.Ops, patch.AllowedSet(req.AllowedPaths)); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	return result.Ops, nil
}

func buildPatchPrompt[T any](ctx context.Context, req *Request[T]) ([]*schema.Message, error) {
	stateJSON, err := sonic.MarshalString(req.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("marshal form state: %w", err)
	}
	systemPrompt := fmt.Sprintf("You are a form assistant. Analyze user input and call %s to generate RFC6902 JSON Patch operations. Rules: only use explicit user info; use replace for updates and add for new array entries; only use allowed paths; if nothing to extract, return empty operations.", updateFormToolName)

	sections := []string{
		fmt.Sprintf("# Form state JSON:\n%s", stateJSON),
		fmt.Sprintf("# Allowed paths:\n%s", formatAllowedPaths(req.AllowedPaths)),
	}
	if s := formatIssuesSection(req.Issues); s != "" {
		sections = append(sections, s)
	}
	if s := formatGuidanceSection(req.Guidance); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, fmt.Sprintf("# User input:\n%s", req.Input))

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}
