package pipeline

import "fmt"

// InvalidStageError is returned for a stage key that is not in the registry.
type InvalidStageError struct {
	Stage string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid deal stage %q", e.Stage)
}
