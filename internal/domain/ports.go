package domain

import (
	"context"
	"mime/multipart"
)

// ============================================================================
// Primary Ports (Application Use Cases)
// ============================================================================

// AccountService defines the primary port for account and profile use cases
type AccountService interface {
	Signup(ctx context.Context, req SignupRequest) (*Profile, error)
	Login(ctx context.Context, req LoginRequest) (*Profile, error)
	LinkOAuthAccount(ctx context.Context, identity OAuthIdentity) (*Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*Profile, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// ============================================================================
// Secondary Ports
// ============================================================================

// PhotoStore persists uploaded profile photos
type PhotoStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(relPath string) error
}

// ============================================================================
// Request Types
// ============================================================================

// SignupRequest represents an email/password registration
type SignupRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	Name            string `json:"name" form:"name"`
}

// LoginRequest represents an email/password login
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// UpdateProfileRequest holds editable profile fields; nil means unchanged
type UpdateProfileRequest struct {
	FullName *string
	Phone    *string
	Address  *string
	DOB      *string
	Bio      *string
	Photo    *multipart.FileHeader
}
