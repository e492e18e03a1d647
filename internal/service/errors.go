package service

import (
	"errors"

	"github.com/bidline/crm-api/internal/domain"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidStage is returned when an unknown pipeline stage is supplied
	ErrInvalidStage = errors.New("invalid stage")
)

// ValidationError is returned when a save is blocked by data-quality
// errors or needs the user to confirm warnings first.
type ValidationError struct {
	Result *domain.ValidationResult
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if !e.Result.IsValid() {
		return e.Result.ErrorMessage()
	}
	return "confirmation required"
}

// ConfirmRequired reports whether the save only needs a confirmed resubmit
func (e *ValidationError) ConfirmRequired() bool {
	return e.Result.IsValid() && e.Result.HasWarnings()
}

// NewValidationError wraps a validation result in an error
func NewValidationError(result *domain.ValidationResult) *ValidationError {
	return &ValidationError{Result: result}
}
