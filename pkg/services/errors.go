// Package services provides the business operations behind the API and CLI:
// workflow management, graph mutation and run orchestration.
package services

import (
	"errors"
	"fmt"

	"github.com/canvasflow/canvasflow/pkg/persistence"
)

// Business logic errors. Validation errors map to 400 responses, conflicts
// to 409.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrUnknownNodeKind      = errors.New("unknown node kind")
	ErrSelfConnection       = errors.New("connection cannot link a node to itself")
	ErrDanglingConnection   = errors.New("connection references a missing node")
	ErrDuplicateConnection  = errors.New("connection already exists")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowBusy = errors.New("workflow is currently executing")

	// Missing sub-resources (404 Not Found).
	ErrNodeNotFound       = errors.New("node not found")
	ErrConnectionNotFound = errors.New("connection not found")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
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

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrUnknownNodeKind) ||
		errors.Is(err, ErrSelfConnection) ||
		errors.Is(err, ErrDanglingConnection) ||
		errors.Is(err, ErrDuplicateConnection)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowBusy)
}

// IsNotFoundError checks if an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrConnectionNotFound) ||
		errors.Is(err, persistence.ErrWorkflowNotFound) ||
		errors.Is(err, persistence.ErrExecutionNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
