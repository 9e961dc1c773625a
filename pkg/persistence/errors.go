// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrDraftNotFound indicates a draft was not found by the given identifier.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrFolderNotFound indicates a folder was not found by the given identifier.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrDraftAlreadyExists indicates a draft with the same identifier already exists.
	ErrDraftAlreadyExists = errors.New("draft already exists")

	// ErrDraftArchived indicates a mutation was attempted on an archived draft.
	ErrDraftArchived = errors.New("draft is archived")

	// ErrFolderAlreadyExists indicates a folder with the same identifier already exists.
	ErrFolderAlreadyExists = errors.New("folder already exists")

	// ErrInvalidSortField indicates a listing requested an unsupported sort field.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrInvalidSortOrder indicates a listing requested an unsupported sort order.
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// DraftError wraps draft-related errors with additional context.
type DraftError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Archive")
	DraftID string // Draft ID if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *DraftError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for draft %s: %s (%v)", e.Op, e.DraftID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for draft %s: %v", e.Op, e.DraftID, e.Err)
}

func (e *DraftError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for draft errors.
func (e *DraftError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDraftError creates a new draft error with context.
func NewDraftError(op, draftID string, err error) *DraftError {
	return &DraftError{
		Op:      op,
		DraftID: draftID,
		Err:     err,
	}
}

// FolderError wraps folder-related errors with additional context.
type FolderError struct {
	Op       string // Operation being performed
	FolderID string // Folder ID
	Err      error  // Underlying error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("%s operation failed for folder %s: %v", e.Op, e.FolderID, e.Err)
}

func (e *FolderError) Unwrap() error {
	return e.Err
}

func (e *FolderError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsDraftNotFound checks if an error indicates a draft was not found.
func IsDraftNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}

// IsFolderNotFound checks if an error indicates a folder was not found.
func IsFolderNotFound(err error) bool {
	return errors.Is(err, ErrFolderNotFound)
}

// IsDraftArchived checks if an error indicates the draft is archived.
func IsDraftArchived(err error) bool {
	return errors.Is(err, ErrDraftArchived)
}

// IsInvalidSortField checks if an error indicates an unsupported sort field.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
