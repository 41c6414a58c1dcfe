package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account row. Empty strings are stored as NULL for the
// nullable columns (password, google_id, profile_photo).
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"` // Never expose password in JSON
	GoogleID     string    `json:"-" db:"google_id"`
	Name         string    `json:"name" db:"name"`
	ProfilePhoto string    `json:"profile_photo" db:"profile_photo"`
	Phone        string    `json:"phone" db:"phone"`
	Address      string    `json:"address" db:"address"`
	DOB          string    `json:"dob" db:"dob"`
	Bio          string    `json:"bio" db:"bio"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsGoogleLinked reports whether a Google identity is attached
func (u *User) IsGoogleLinked() bool {
	return u.GoogleID != ""
}

// NewUser creates a new User with a generated UUID
func NewUser(email, passwordHash, name string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
