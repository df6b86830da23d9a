package types

import (
	"strings"
	"testing"
)

func TestFormatIssues(t *testing.T) {
	if got := FormatIssues(nil); got != "" {
		t.Fatalf("expected empty output for no issues, got %q", got)
	}

	out := FormatIssues([]FieldInfo{
		{JSONPointer: "/email", DisplayName: "Email", Description: "Invalid email address"},
		{JSONPointer: "/skills/0/name", DisplayName: "Skill", Description: "Skill is required"},
	})
	for _, want := range []string{"# Validation errors:", "/email", "Invalid email address", "/skills/0/name"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		phase  Phase
		issues []FieldInfo
		want   string
	}{
		{PhaseSubmitted, nil, "form submitted"},
		{PhaseEditing, nil, "form is editable, no errors"},
		{PhaseEditing, []FieldInfo{{JSONPointer: "/age"}}, "form has 1 error(s)"},
	}
	for _, tt := range tests {
		if got := FormatStatus(tt.phase, tt.issues); got != tt.want {
			t.Errorf("FormatStatus(%s, %d issues) = %q, want %q", tt.phase, len(tt.issues), got, tt.want)
		}
	}
}

func TestFind(t *testing.T) {
	issues := []FieldInfo{{JSONPointer: "/a"}, {JSONPointer: "/b", Description: "b"}}
	got, ok := Find(issues, "/b")
	if !ok || got.Description != "b" {
		t.Fatalf("Find(/b) = %+v, %v", got, ok)
	}
	if _, ok := Find(issues, "/c"); ok {
		t.Fatal("Find(/c) should miss")
	}
	if p := Pointers(issues); len(p) != 2 || p[0] != "/a" {
		t.Fatalf("Pointers = %v", p)
	}
}
