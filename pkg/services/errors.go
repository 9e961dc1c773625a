// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownModule    = errors.New("unknown module code")
	ErrInvalidStep      = errors.New("step out of range for module")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrDraftNil         = errors.New("draft cannot be nil")

	// Finalization Validation Errors (400 Bad Request).
	ErrDraftIncomplete = errors.New("draft has not completed all steps")
	ErrClientRequired  = errors.New("draft has no client")

	// Business Logic Conflicts (409 Conflict).
	ErrModuleImmutable      = errors.New("module code cannot be changed after creation")
	ErrCannotModifyArchived = errors.New("cannot modify archived draft")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a service error carrying a validation failure.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownModule) ||
		errors.Is(err, ErrInvalidStep) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrDraftNil) ||
		errors.Is(err, ErrDraftIncomplete) ||
		errors.Is(err, ErrClientRequired)
}

// IsConflictError checks if an error is a business conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrModuleImmutable) ||
		errors.Is(err, ErrCannotModifyArchived)
}
