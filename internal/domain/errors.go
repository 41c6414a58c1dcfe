package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Domain Error Types
// ============================================================================

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ============================================================================
// Common Domain Errors
// ============================================================================

var (
	// Account Errors
	ErrAccountNotFound = &DomainError{
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "Profile not found.",
	}
	ErrAccountAlreadyExists = &DomainError{
		Code:    "ACCOUNT_ALREADY_EXISTS",
		Message: "An account with this email already exists.",
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid credentials.",
	}
	ErrOAuthProfileInvalid = &DomainError{
		Code:    "OAUTH_PROFILE_INVALID",
		Message: "OAuth profile is missing an email address",
	}

	// Validation Errors
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
	}
	ErrRequiredFieldMissing = &DomainError{
		Code:    "REQUIRED_FIELD_MISSING",
		Message: "Email and password are required.",
	}

	// Photo Errors
	ErrPhotoInvalid = &DomainError{
		Code:    "PHOTO_INVALID",
		Message: "Only image uploads are allowed.",
	}
	ErrPhotoTooLarge = &DomainError{
		Code:    "PHOTO_TOO_LARGE",
		Message: "Profile photo is too large.",
	}

	// Infrastructure Errors
	ErrDatabaseOperation = &DomainError{
		Code:    "DATABASE_OPERATION_FAILED",
		Message: "database operation failed",
	}
	ErrFileSystem = &DomainError{
		Code:    "FILESYSTEM_ERROR",
		Message: "filesystem operation failed",
	}
	ErrSession = &DomainError{
		Code:    "SESSION_ERROR",
		Message: "session operation failed",
	}
)

// ============================================================================
// Error Wrapping Helpers
// ============================================================================

// WrapValidationError wraps an error as a validation failure for a field.
// The cause text is part of the public message.
func WrapValidationError(field string, cause error) error {
	msg := fmt.Sprintf("validation failed for %s", field)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &DomainError{
		Code:    ErrValidationFailed.Code,
		Message: msg,
		Cause:   cause,
	}
}

// NewValidationError creates a validation failure with a client-facing message
func NewValidationError(message string) error {
	return &DomainError{
		Code:    ErrValidationFailed.Code,
		Message: message,
	}
}

// WrapAccountNotFound wraps an error as an account not found error
func WrapAccountNotFound(userID string, cause error) error {
	return &DomainError{
		Code:    ErrAccountNotFound.Code,
		Message: ErrAccountNotFound.Message,
		Cause:   fmt.Errorf("account %s: %w", userID, cause),
	}
}

// WrapDatabaseOperation wraps an error as a database operation failure
func WrapDatabaseOperation(operation string, cause error) error {
	return &DomainError{
		Code:    ErrDatabaseOperation.Code,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Cause:   cause,
	}
}

// WrapFileSystem wraps an error as a filesystem failure
func WrapFileSystem(operation string, cause error) error {
	return &DomainError{
		Code:    ErrFileSystem.Code,
		Message: fmt.Sprintf("filesystem operation failed: %s", operation),
		Cause:   cause,
	}
}

// WrapSession wraps an error as a session store failure
func WrapSession(operation string, cause error) error {
	return &DomainError{
		Code:    ErrSession.Code,
		Message: fmt.Sprintf("session operation failed: %s", operation),
		Cause:   cause,
	}
}

// ============================================================================
// Error Checking Helpers
// ============================================================================

// PublicMessage returns the client-safe message of a domain error
func PublicMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return "An error occurred"
}

func hasCode(err error, codes ...string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	for _, code := range codes {
		if domainErr.Code == code {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrAccountNotFound.Code)
}

// IsConflictError checks if an error reports a duplicate account
func IsConflictError(err error) bool {
	return hasCode(err, ErrAccountAlreadyExists.Code)
}

// IsUnauthorizedError checks if an error is a credential failure
func IsUnauthorizedError(err error) bool {
	return hasCode(err, ErrInvalidCredentials.Code)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err,
		ErrValidationFailed.Code,
		ErrRequiredFieldMissing.Code,
		ErrPhotoInvalid.Code,
		ErrPhotoTooLarge.Code,
		ErrOAuthProfileInvalid.Code,
	)
}

// IsInfrastructureError checks if an error is an infrastructure error
func IsInfrastructureError(err error) bool {
	return hasCode(err,
		ErrDatabaseOperation.Code,
		ErrFileSystem.Code,
		ErrSession.Code,
	)
}
