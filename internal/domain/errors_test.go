package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapValidationError(t *testing.T) {
	tests := []struct {
		name               string
		field              string
		cause              error
		expectedPublicMsg  string
		shouldContainInMsg []string
	}{
		{
			name:              "with cause error",
			field:             "date of birth",
			cause:             errors.New("must be formatted as YYYY-MM-DD"),
			expectedPublicMsg: "validation failed for date of birth: must be formatted as YYYY-MM-DD",
			shouldContainInMsg: []string{
				"validation failed for date of birth",
				"YYYY-MM-DD",
			},
		},
		{
			name:              "with nil cause",
			field:             "full name",
			cause:             nil,
			expectedPublicMsg: "validation failed for full name",
			shouldContainInMsg: []string{
				"validation failed for full name",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapValidationError(tt.field, tt.cause)
			if err == nil {
				t.Fatal("expected error but got nil")
			}

			var domainErr *DomainError
			if !errors.As(err, &domainErr) {
				t.Error("expected error to be a DomainError")
			}

			if !strings.Contains(err.Error(), "VALIDATION_FAILED") {
				t.Errorf("expected error message to contain code VALIDATION_FAILED, but got: %q", err.Error())
			}

			publicMsg := PublicMessage(err)
			if publicMsg != tt.expectedPublicMsg {
				t.Errorf("expected public message:\n  %q\nbut got:\n  %q", tt.expectedPublicMsg, publicMsg)
			}

			for _, substr := range tt.shouldContainInMsg {
				if !strings.Contains(publicMsg, substr) {
					t.Errorf("expected public message to contain %q, but got: %q", substr, publicMsg)
				}
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{
			name:        "sentinel",
			err:         ErrInvalidCredentials,
			expectedMsg: "Invalid credentials.",
		},
		{
			name:        "wrapped not found keeps client message",
			err:         WrapAccountNotFound("42", errors.New("no rows")),
			expectedMsg: "Profile not found.",
		},
		{
			name:        "non-domain error",
			err:         errors.New("some random error"),
			expectedMsg: "An error occurred",
		},
		{
			name:        "nil error returns generic message",
			err:         nil,
			expectedMsg: "An error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := PublicMessage(tt.err); msg != tt.expectedMsg {
				t.Errorf("expected message %q, but got %q", tt.expectedMsg, msg)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		validation     bool
		notFound       bool
		conflict       bool
		unauthorized   bool
		infrastructure bool
	}{
		{name: "validation", err: NewValidationError("Passwords do not match."), validation: true},
		{name: "required field", err: ErrRequiredFieldMissing, validation: true},
		{name: "photo invalid", err: ErrPhotoInvalid, validation: true},
		{name: "not found", err: WrapAccountNotFound("x", errors.New("no rows")), notFound: true},
		{name: "conflict", err: ErrAccountAlreadyExists, conflict: true},
		{name: "unauthorized", err: ErrInvalidCredentials, unauthorized: true},
		{name: "database", err: WrapDatabaseOperation("insert user", errors.New("disk full")), infrastructure: true},
		{name: "session", err: WrapSession("save", errors.New("redis down")), infrastructure: true},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError = %v, want %v", got, tt.validation)
			}
			if got := IsNotFoundError(tt.err); got != tt.notFound {
				t.Errorf("IsNotFoundError = %v, want %v", got, tt.notFound)
			}
			if got := IsConflictError(tt.err); got != tt.conflict {
				t.Errorf("IsConflictError = %v, want %v", got, tt.conflict)
			}
			if got := IsUnauthorizedError(tt.err); got != tt.unauthorized {
				t.Errorf("IsUnauthorizedError = %v, want %v", got, tt.unauthorized)
			}
			if got := IsInfrastructureError(tt.err); got != tt.infrastructure {
				t.Errorf("IsInfrastructureError = %v, want %v", got, tt.infrastructure)
			}
		})
	}
}

func TestDomainErrorIsMatchesByCode(t *testing.T) {
	err := WrapAccountNotFound("abc", errors.New("sql: no rows in result set"))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Error("expected wrapped not found error to match sentinel")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("expected not found error not to match credentials sentinel")
	}
}
