package types

type Phase string

const (
	PhaseEditing   Phase = "editing"
	PhaseSubmitted Phase = "submitted"
)

// FieldInfo describes a single field. Validators use it to report one failure:
// JSONPointer locates the field and Description carries the message.
type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

func Pointers(issues []FieldInfo) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.JSONPointer)
	}
	return out
}

func Find(issues []FieldInfo, pointer string) (FieldInfo, bool) {
	for _, issue := range issues {
		if issue.JSONPointer == pointer {
			return issue, true
		}
	}
	return FieldInfo{}, false
}
