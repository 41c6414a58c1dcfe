package domain

import (
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"

	defaultDisplayName = "Radlinks member"
	defaultUsername    = "member"
)

// SessionUser is the identity stored in the session and returned by /api/me
type SessionUser struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Picture  *string `json:"picture"`
	Provider string  `json:"provider"`
}

// Profile is the account view returned by the profile endpoints
type Profile struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	DOB           string    `json:"dob"`
	Bio           string    `json:"bio"`
	CreatedAt     time.Time `json:"createdAt"`
	EmailVerified bool      `json:"emailVerified"`
	ProfilePhoto  string    `json:"profilePhoto,omitempty"`
	Provider      string    `json:"provider"`
}

// OAuthIdentity is what an external provider tells us about a user
type OAuthIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}

// BuildSessionUser derives the session identity from a profile, filling
// display fields from whatever the profile has.
func BuildSessionUser(p *Profile) SessionUser {
	local := LocalPart(p.Email)

	name := firstNonEmpty(p.FullName, p.Username, local, defaultDisplayName)
	username := firstNonEmpty(p.Username, local, defaultUsername)

	var picture *string
	if p.ProfilePhoto != "" {
		photo := p.ProfilePhoto
		picture = &photo
	}

	return SessionUser{
		ID:       p.ID,
		Email:    p.Email,
		Name:     name,
		Username: username,
		Picture:  picture,
		Provider: firstNonEmpty(p.Provider, ProviderPassword),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
