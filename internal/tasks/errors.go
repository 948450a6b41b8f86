package tasks

import (
	"errors"
	"fmt"
	"strings"
)

// Data-integrity errors are fatal to a command: the manifest is not in a
// state that can be safely mutated, so callers must abort before writing.
// Precondition errors are recoverable: the caller can fix the condition
// or pass --force.

// CorruptManifestError reports a manifest that failed JSON decoding or
// schema validation.
type CorruptManifestError struct {
	Path   string
	Reason string
}

func (e *CorruptManifestError) Error() string {
	return fmt.Sprintf("corrupt manifest %s: %s", e.Path, e.Reason)
}

// CycleError reports a dependency cycle. Tasks lists the ids on the cycle
// in traversal order.
type CycleError struct {
	Tasks []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Tasks, " -> "))
}

// DanglingDependencyError reports a dependency on a task id that is not
// present in the manifest.
type DanglingDependencyError struct {
	TaskID string
	DepID  string
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("task %s depends on %s, which is not in the manifest", e.TaskID, e.DepID)
}

// TaskNotFoundError reports a lookup of an unknown task id.
type TaskNotFoundError struct {
	ID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// NotReadyError reports an attempt to start a task whose preconditions
// are not met.
type NotReadyError struct {
	ID     string
	Status string
	// Waiting lists incomplete dependency ids, if that is the reason.
	Waiting []string
}

func (e *NotReadyError) Error() string {
	if len(e.Waiting) > 0 {
		return fmt.Sprintf("task %s is not ready: waiting on %s", e.ID, strings.Join(e.Waiting, ", "))
	}
	return fmt.Sprintf("task %s is not ready: status is %s", e.ID, e.Status)
}

// ValidationIncompleteError reports a completion attempt without the
// required evidence.
type ValidationIncompleteError struct {
	ID     string
	Reason string
}

func (e *ValidationIncompleteError) Error() string {
	return fmt.Sprintf("cannot complete %s: %s", e.ID, e.Reason)
}

// IsDataIntegrityError reports whether err belongs to the fatal
// taxonomy: corrupt manifest, cycle, or dangling dependency. Commands map
// these to exit code 2.
func IsDataIntegrityError(err error) bool {
	var corrupt *CorruptManifestError
	var cycle *CycleError
	var dangling *DanglingDependencyError
	return errors.As(err, &corrupt) || errors.As(err, &cycle) || errors.As(err, &dangling)
}
