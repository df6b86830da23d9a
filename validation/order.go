package validation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tbxark/formengine/patch"
	"github.com/tbxark/formengine/types"
)

// NormalizePointer replaces array indices with "-" so a concrete pointer can
// be matched against the paths reported by patch.AllJSONPointerPaths.
func NormalizePointer(pointer string) string {
	if pointer == "" {
		return pointer
	}
	segments := strings.Split(pointer, "/")
	for i, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil && segment != "" {
			segments[i] = "-"
		}
	}
	return strings.Join(segments, "/")
}

func indices(pointer string) []int {
	var out []int
	for _, segment := range strings.Split(pointer, "/") {
		if n, err := strconv.Atoi(segment); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// sortByFieldOrder orders issues by struct field declaration order of T,
// then by array index, and drops repeated pointers.
func sortByFieldOrder[T any](issues []types.FieldInfo) []types.FieldInfo {
	rank := make(map[string]int)
	for i, path := range patch.AllJSONPointerPaths[T]() {
		rank[path] = i
	}
	rankOf := func(pointer string) int {
		if r, ok := rank[NormalizePointer(pointer)]; ok {
			return r
		}
		return len(rank)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := rankOf(issues[i].JSONPointer), rankOf(issues[j].JSONPointer)
		if ri != rj {
			return ri < rj
		}
		ii, ij := indices(issues[i].JSONPointer), indices(issues[j].JSONPointer)
		for k := 0; k < len(ii) && k < len(ij); k++ {
			if ii[k] != ij[k] {
				return ii[k] < ij[k]
			}
		}
		return len(ii) < len(ij)
	})

	out := issues[:0]
	seen := make(map[string]bool, len(issues))
	for _, issue := range issues {
		if seen[issue.JSONPointer] {
			continue
		}
		seen[issue.JSONPointer] = true
		out = append(out, issue)
	}
	return out
}

func lastToken(pointer string) string {
	if i := strings.LastIndex(pointer, "/"); i >= 0 {
		return pointer[i+1:]
	}
	return pointer
}

// Sorted wraps v so that its issues come back in struct field order of T.
func Sorted[T any](v Validator[T]) Validator[T] {
	return Func[T](func(current T) []types.FieldInfo {
		issues := v.Validate(current)
		if len(issues) == 0 {
			return nil
		}
		return sortByFieldOrder[T](issues)
	})
}
