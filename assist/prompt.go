package assist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tbxark/formengine/types"
)

func formatAllowedPaths(paths []string) string {
	if len(paths) == 0 {
		return "all (no restriction)"
	}
	var sb strings.Builder
	for _, path := range paths {
		sb.WriteString("- ")
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatIssuesSection(issues []types.FieldInfo) string {
	if len(issues) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Fields that still need a value:\n")
	for _, issue := range issues {
		fmt.Fprintf(&sb, "- %s [%s]", issue.DisplayName, issue.JSONPointer)
		if issue.Description != "" {
			fmt.Fprintf(&sb, ": %s", issue.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatGuidanceSection(guidance map[string]string) string {
	if len(guidance) == 0 {
		return ""
	}
	keys := make([]string, 0, len(guidance))
	for path := range guidance {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString("# Field guidance:\n")
	for _, path := range keys {
		fmt.Fprintf(&sb, "- %s: %s\n", path, guidance[path])
	}
	return strings.TrimRight(sb.String(), "\n")
}
