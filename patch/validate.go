package patch

import (
	"fmt"
	"strings"
)

// ErrPathNotAllowed is returned (wrapped) for operations outside the whitelist.
var ErrPathNotAllowed = fmt.Errorf("path not allowed")

func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	if len(ops) == 0 {
		return nil
	}
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace, OperationTest:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if err := validatePathAllowed(op.Path, allowedPaths); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func AllowedSet(paths []string) map[string]bool {
	allowed := make(map[string]bool, len(paths))
	for _, path := range paths {
		allowed[path] = true
	}
	return allowed
}

func validatePathAllowed(path string, allowedPaths map[string]bool) error {
	if len(allowedPaths) == 0 {
		return nil
	}
	if allowedPaths[path] {
		return nil
	}
	if isPathMatchedByWildcard(path, allowedPaths) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrPathNotAllowed, path)
}

func isPathMatchedByWildcard(path string, allowedPaths map[string]bool) bool {
	segments := strings.Split(path, "/")
	return matchWildcardRecursive(segments, 0, allowedPaths, false)
}

func matchWildcardRecursive(segments []string, index int, allowedPaths map[string]bool, hasWildcard bool) bool {
	if index >= len(segments) {
		if !hasWildcard {
			return false
		}
		pattern := strings.Join(segments, "/")
		return allowedPaths[pattern]
	}

	if index == 0 {
		return matchWildcardRecursive(segments, index+1, allowedPaths, hasWildcard)
	}

	original := segments[index]

	segments[index] = "-"
	if matchWildcardRecursive(segments, index+1, allowedPaths, true) {
		segments[index] = original
		return true
	}

	segments[index] = "*"
	if matchWildcardRecursive(segments, index+1, allowedPaths, true) {
		segments[index] = original
		return true
	}

	segments[index] = original
	return matchWildcardRecursive(segments, index+1, allowedPaths, hasWildcard)
}
