// Package services provides the business operations behind the flowpad API:
// workflow CRUD, the guarded graph editor and execution orchestration.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrUnknownNodeKind      = errors.New("unknown node kind")
	ErrInvalidNodeConfig    = errors.New("invalid node config")

	// Missing resources (404 Not Found).
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeNotFound = errors.New("edge not found")
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

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ImportError rejects a workflow document as a whole, carrying every
// structural problem found. Import is all-or-nothing.
type ImportError struct {
	Problems []string
}

func (e *ImportError) Error() string {
	return "workflow document rejected: " + strings.Join(e.Problems, "; ")
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return true
	}

	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrUnknownNodeKind) ||
		errors.Is(err, ErrInvalidNodeConfig)
}

// IsNotFoundError checks if an error means a requested resource does not
// exist and should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrEdgeNotFound)
}

// IsConflictError checks if an error is a business logic conflict that
// should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrExecutionInProgress)
}
