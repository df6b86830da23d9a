package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatIssues renders validation failures as a markdown table. It returns an
// empty string when there is nothing to report.
func FormatIssues(issues []FieldInfo) string {
	if len(issues) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# Validation errors:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Pointer", "Error")
	for _, issue := range issues {
		_ = table.Append(issue.DisplayName, issue.JSONPointer, issue.Description)
	}
	_ = table.Render()
	return buf.String()
}

// FormatStatus is a one-line summary for terminal output.
func FormatStatus(phase Phase, issues []FieldInfo) string {
	switch {
	case phase == PhaseSubmitted:
		return "form submitted"
	case len(issues) == 0:
		return "form is editable, no errors"
	default:
		return fmt.Sprintf("form has %d error(s)", len(issues))
	}
}
