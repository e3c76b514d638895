package project

import (
	"errors"
	"fmt"
)

// Sentinel errors used for simple equality-style checks.
var (
	// ErrProjectExists indicates a project id is already registered.
	ErrProjectExists = errors.New("contammap: project exists")

	// ErrProjectNotFound indicates a requested project is not registered.
	ErrProjectNotFound = errors.New("contammap: project not found")

	// ErrInvalidConfig indicates a project file is invalid or fails validation.
	ErrInvalidConfig = errors.New("contammap: invalid config")
)

// ProjectExistsError carries the id that is already taken.
type ProjectExistsError struct {
	ID string
}

func (e *ProjectExistsError) Error() string {
	return fmt.Sprintf("project %q already exists", e.ID)
}

func (e *ProjectExistsError) Is(target error) bool { return target == ErrProjectExists }

func (e *ProjectExistsError) Unwrap() error { return ErrProjectExists }

// NewProjectExistsError constructs a typed ProjectExistsError.
func NewProjectExistsError(id string) error {
	return &ProjectExistsError{ID: id}
}

// IsProjectExists reports whether err is (or wraps) a project-exists condition.
func IsProjectExists(err error) bool {
	return errors.Is(err, ErrProjectExists)
}

// ProjectNotFoundError carries the missing project id.
type ProjectNotFoundError struct {
	ID string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project %q not found", e.ID)
}

func (e *ProjectNotFoundError) Is(target error) bool { return target == ErrProjectNotFound }

func (e *ProjectNotFoundError) Unwrap() error { return ErrProjectNotFound }

// NewProjectNotFoundError constructs a typed ProjectNotFoundError.
func NewProjectNotFoundError(id string) error {
	return &ProjectNotFoundError{ID: id}
}

// IsProjectNotFound reports whether err is (or wraps) a project-not-found
// condition.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

// InvalidConfigError represents a validation or parse failure for a project
// file.
type InvalidConfigError struct {
	Msg string
}

func (e *InvalidConfigError) Error() string {
	if e.Msg == "" {
		return "invalid project config"
	}
	return fmt.Sprintf("invalid project config: %s", e.Msg)
}

func (e *InvalidConfigError) Is(target error) bool { return target == ErrInvalidConfig }

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// NewInvalidConfigError creates an InvalidConfigError with a human message.
func NewInvalidConfigError(msg string) error {
	return &InvalidConfigError{Msg: msg}
}

// IsInvalidConfig reports whether err is (or wraps) an invalid-config condition.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
