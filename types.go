package formengine

import (
	"time"

	"github.com/tbxark/formengine/types"
)

const checkpointVersion = "1.0"

type Checkpoint[T any] struct {
	Version      string            `json:"version"`
	Phase        types.Phase       `json:"phase"`
	FormState    T                 `json:"form_state"`
	Timestamp    time.Time         `json:"timestamp"`
	AllowedPaths []string          `json:"allowed_paths"`
	Issues       []types.FieldInfo `json:"issues,omitempty"`
}
