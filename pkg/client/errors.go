// Package client provides typed access to the remote draft store.
package client

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by every store implementation.
var (
	// ErrNotFound indicates the draft or folder id does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates the store rejected the request contents.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates the operation conflicts with the resource state.
	ErrConflict = errors.New("conflict")

	// ErrNetwork indicates a transport failure before any store response.
	ErrNetwork = errors.New("network failure")
)

// NotFoundError carries the id that could not be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("draft store: %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError carries the store's rejection detail.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "draft store: " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConflictError carries the store's conflict detail.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return "draft store: " + e.Detail
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("draft store: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return ErrNetwork
}

// IsNotFound checks if an error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error indicates rejected request contents.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetwork checks if an error indicates a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
