package patch

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
)

// GeneratePatchesFromInitial returns the operations that copy every non-zero
// value of initial onto current. Zero values in initial are treated as
// "not provided" and never overwrite current.
func GeneratePatchesFromInitial[T any](current, initial T) ([]Operation, error) {
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current state: %w", err)
	}

	initialJSON, err := sonic.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initial state: %w", err)
	}

	var currentMap map[string]any
	if err := sonic.Unmarshal(currentJSON, &currentMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current state: %w", err)
	}

	var initialMap map[string]any
	if err := sonic.Unmarshal(initialJSON, &initialMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initial state: %w", err)
	}

	patches := make([]Operation, 0)
	generatePatchesFromMap("", currentMap, initialMap, &patches)
	return patches, nil
}

func generatePatchesFromMap(prefix string, current, initial map[string]any, patches *[]Operation) {
	for key, initialValue := range initial {
		if isZeroValue(initialValue) {
			continue
		}

		path := prefix + "/" + escapeJSONPointer(key)
		currentValue, existsInCurrent := current[key]

		if initialMap, ok := initialValue.(map[string]any); ok {
			if currentMap, ok := currentValue.(map[string]any); ok {
				generatePatchesFromMap(path, currentMap, initialMap, patches)
			} else {
				*patches = append(*patches, Replace(path, initialValue))
			}
			continue
		}

		if !existsInCurrent {
			*patches = append(*patches, Add(path, initialValue))
		} else if !reflect.DeepEqual(currentValue, initialValue) {
			*patches = append(*patches, Replace(path, initialValue))
		}
	}
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}

	switch val := v.(type) {
	case string:
		return val == ""
	case float64:
		return val == 0
	case int64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
