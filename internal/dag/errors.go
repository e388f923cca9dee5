package dag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateTask       = errors.New("duplicate task")
	ErrMissingTaskFunction = errors.New("missing task function")
	ErrCircularDependency  = errors.New("circular dependency")
	ErrUndefinedTask       = errors.New("undefined task")
	ErrEmptyTaskID         = errors.New("task id must not be empty")
	ErrAlreadyRun          = errors.New("runner has already been run")
)

// cycleSeparator joins the ids of a cycle path in error messages.
const cycleSeparator = " --> "

// TaskError describes a registration or scheduling failure tied to one task.
// Kind is one of the package sentinels, so callers can use errors.Is.
type TaskError struct {
	Kind  error
	ID    string
	Cycle []string
}

func (e *TaskError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ErrDuplicateTask:
		return fmt.Sprintf("task '%s' has already been added", e.ID)
	case ErrMissingTaskFunction:
		return fmt.Sprintf("no function provided for task '%s'", e.ID)
	case ErrUndefinedTask:
		return fmt.Sprintf("task '%s' has not been defined", e.ID)
	case ErrCircularDependency:
		return "circular dependency detected: " + strings.Join(e.Cycle, cycleSeparator)
	}
	return fmt.Sprintf("task '%s': %v", e.ID, e.Kind)
}

func (e *TaskError) Unwrap() error { return e.Kind }

func duplicateTask(id string) error {
	return &TaskError{Kind: ErrDuplicateTask, ID: id}
}

func missingTaskFunction(id string) error {
	return &TaskError{Kind: ErrMissingTaskFunction, ID: id}
}

func undefinedTask(id string) error {
	return &TaskError{Kind: ErrUndefinedTask, ID: id}
}

func circularDependency(path []string) error {
	e := &TaskError{Kind: ErrCircularDependency, Cycle: path}
	if len(path) > 0 {
		e.ID = path[0]
	}
	return e
}
