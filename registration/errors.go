package registration

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/tbxark/formengine/types"
)

var (
	ErrUnknownField    = errors.New("unknown field")
	ErrFieldType       = errors.New("value has the wrong type for field")
	ErrIndexOutOfRange = errors.New("skill index out of range")
	ErrNoSkills        = errors.New("form must keep at least one skill")
)

// ValidationErrors holds at most one message per field. A nil field means the
// field passed.
type ValidationErrors struct {
	FullName      *string `json:"fullName,omitempty"`
	Email         *string `json:"email,omitempty"`
	Age           *string `json:"age,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty"`
	File          *string `json:"file,omitempty"`
	Skills        *string `json:"skills,omitempty"`
	AgreedToTerms *string `json:"agreedToTerms,omitempty"`

	// SkillAt maps a skills index to the message for that entry.
	SkillAt map[int]string `json:"skillAt,omitempty"`
}

// NewValidationErrors folds validator output into the per-field record.
// Unknown pointers are ignored.
func NewValidationErrors(issues []types.FieldInfo) ValidationErrors {
	var out ValidationErrors
	for _, issue := range issues {
		msg := issue.Description
		switch {
		case issue.JSONPointer == PointerFullName:
			setOnce(&out.FullName, msg)
		case issue.JSONPointer == PointerEmail:
			setOnce(&out.Email, msg)
		case issue.JSONPointer == PointerAge:
			setOnce(&out.Age, msg)
		case issue.JSONPointer == PointerGender:
			setOnce(&out.Gender, msg)
		case issue.JSONPointer == PointerCity:
			setOnce(&out.City, msg)
		case issue.JSONPointer == PointerState:
			setOnce(&out.State, msg)
		case issue.JSONPointer == PointerDateOfBirth:
			setOnce(&out.DateOfBirth, msg)
		case issue.JSONPointer == PointerFile || strings.HasPrefix(issue.JSONPointer, PointerFile+"/"):
			setOnce(&out.File, msg)
		case issue.JSONPointer == PointerSkills:
			setOnce(&out.Skills, msg)
		case strings.HasPrefix(issue.JSONPointer, PointerSkills+"/"):
			index, ok := skillIndex(issue.JSONPointer)
			if !ok {
				continue
			}
			if out.SkillAt == nil {
				out.SkillAt = make(map[int]string)
			}
			if _, exists := out.SkillAt[index]; !exists {
				out.SkillAt[index] = msg
			}
		case issue.JSONPointer == PointerAgreedToTerms:
			setOnce(&out.AgreedToTerms, msg)
		}
	}
	return out
}

func setOnce(field **string, msg string) {
	if *field == nil {
		*field = &msg
	}
}

// skillIndex extracts i from "/skills/i" or "/skills/i/name".
func skillIndex(pointer string) (int, bool) {
	rest := strings.TrimPrefix(pointer, PointerSkills+"/")
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func (v ValidationErrors) fields() []*string {
	return []*string{
		v.FullName, v.Email, v.Age, v.Gender, v.City, v.State,
		v.DateOfBirth, v.File, v.Skills, v.AgreedToTerms,
	}
}

func (v ValidationErrors) Empty() bool {
	return v.Count() == 0
}

// Count is the number of failing fields, counting each flagged skill entry.
func (v ValidationErrors) Count() int {
	n := len(v.SkillAt)
	for _, f := range v.fields() {
		if f != nil {
			n++
		}
	}
	return n
}

// SkillIndices returns the flagged skill indices in ascending order.
func (v ValidationErrors) SkillIndices() []int {
	indices := make([]int, 0, len(v.SkillAt))
	for i := range v.SkillAt {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
