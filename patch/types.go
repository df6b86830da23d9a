package patch

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
	OperationTest    = "test"
)

// Operation is a single RFC6902 operation. Value is always serialised so that
// zero values such as "" or false survive the round trip through json-patch.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func Replace(path string, value any) Operation {
	return Operation{Op: OperationReplace, Path: path, Value: value}
}

func Add(path string, value any) Operation {
	return Operation{Op: OperationAdd, Path: path, Value: value}
}

func Remove(path string) Operation {
	return Operation{Op: OperationRemove, Path: path}
}
