package domain

import (
	"net/mail"
	"strings"
	"time"
)

// ============================================================================
// Value Objects
// ============================================================================

const (
	// MinPasswordLength is the shortest password accepted at signup
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit
	MaxPasswordLength = 72

	maxEmailLength = 254
	dobLayout      = "2006-01-02"
)

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email represents a normalized, syntactically valid email address
type Email struct {
	value string
}

// NewEmail creates a new validated email
func NewEmail(raw string) (*Email, error) {
	normalized := NormalizeEmail(raw)
	if normalized == "" {
		return nil, ErrRequiredFieldMissing
	}

	if len(normalized) > maxEmailLength {
		return nil, NewValidationError("Email address is too long.")
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized || !strings.Contains(normalized, "@") {
		return nil, NewValidationError("Email address is invalid.")
	}

	return &Email{value: normalized}, nil
}

// String returns the normalized address
func (e *Email) String() string {
	return e.value
}

// LocalPart returns the part before the @
func (e *Email) LocalPart() string {
	return LocalPart(e.value)
}

// LocalPart returns the part of an address before the @, or "" when there is none
func LocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return local
}

// ============================================================================

// Password represents a signup password that passed the policy checks
type Password struct {
	value string
}

// NewPassword validates a password and its confirmation
func NewPassword(password, confirm string) (*Password, error) {
	if password == "" || confirm == "" {
		return nil, ErrRequiredFieldMissing
	}
	if len(password) < MinPasswordLength {
		return nil, NewValidationError("Password must be at least 6 characters.")
	}
	if len(password) > MaxPasswordLength {
		return nil, NewValidationError("Password must be at most 72 characters.")
	}
	if password != confirm {
		return nil, NewValidationError("Passwords do not match.")
	}
	return &Password{value: password}, nil
}

// String returns the plaintext password
func (p *Password) String() string {
	return p.value
}

// ============================================================================

// ParseDateOfBirth validates an optional YYYY-MM-DD date that is not in the future
func ParseDateOfBirth(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	dob, err := time.Parse(dobLayout, raw)
	if err != nil {
		return "", NewValidationError("Date of birth must be formatted as YYYY-MM-DD.")
	}
	if dob.After(now) {
		return "", NewValidationError("Date of birth cannot be in the future.")
	}
	return dob.Format(dobLayout), nil
}
