package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasktalk-api/internal/store"
)

// ErrConversationNotFound is returned for conversations that do not exist
// and for conversations owned by someone else. The two are deliberately
// indistinguishable.
var ErrConversationNotFound = store.ErrConversationNotFound

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "append_message")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("conversation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Not-found errors are returned as ErrConversationNotFound without wrapping.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrConversationNotFound) {
		return ErrConversationNotFound
	}
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
