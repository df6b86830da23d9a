package patch

import (
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// AllJSONPointerPaths lists every pointer reachable in T by json tag name.
// Slices and arrays contribute "/-" segments, maps "/*".
func AllJSONPointerPaths[T any]() []string {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return []string{}
	}

	paths := make([]string, 0)
	visited := make(map[reflect.Type]bool)
	collectPaths(typ, "", &paths, visited)
	return paths
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string, visited map[reflect.Type]bool) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if visited[typ] || typ == timeType {
		return
	}

	switch typ.Kind() {
	case reflect.Struct:
		visited[typ] = true
		defer func() { delete(visited, typ) }()

		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}

			jsonName := JSONFieldName(field)
			if jsonName == "" || jsonName == "-" {
				continue
			}

			fieldPath := prefix + "/" + escapeJSONPointer(jsonName)
			*paths = append(*paths, fieldPath)
			collectPaths(field.Type, fieldPath, paths, visited)
		}

	case reflect.Slice, reflect.Array:
		elemType := typ.Elem()
		arrayPath := prefix + "/-"
		*paths = append(*paths, arrayPath)

		if elemType.Kind() == reflect.Struct ||
			(elemType.Kind() == reflect.Ptr && elemType.Elem().Kind() == reflect.Struct) {
			collectPaths(elemType, arrayPath, paths, visited)
		}

	case reflect.Map:
		valueType := typ.Elem()
		mapPath := prefix + "/*"
		*paths = append(*paths, mapPath)

		if valueType.Kind() == reflect.Struct ||
			(valueType.Kind() == reflect.Ptr && valueType.Elem().Kind() == reflect.Struct) {
			collectPaths(valueType, mapPath, paths, visited)
		}
	default:
		break
	}
}

// JSONFieldName returns the name encoding/json would use for field.
func JSONFieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name
	}

	parts := strings.Split(jsonTag, ",")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}

	return field.Name
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
