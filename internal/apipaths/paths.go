package apipaths

import "net/url"

// Route paths shared by the router, handlers and redirects

const (
	Home            = "/"
	Signup          = "/signup"
	Login           = "/login"
	Logout          = "/logout"
	Dashboard       = "/dashboard"
	AccountSettings = "/account-settings"
	UpdateProfile   = "/update-profile"
	DeleteAccount   = "/delete-account"

	GoogleStart    = "/auth/google"
	GoogleComplete = "/auth/google/complete"
	AuthError      = "/auth/error"

	// OAuthMount is where the OAuth provider handlers live
	OAuthMount  = "/oauth"
	GoogleLogin = OAuthMount + "/google/login"

	// OAuthCallbackSuffix ends every provider callback path
	OAuthCallbackSuffix = "/callback"

	Me      = "/api/me"
	Profile = "/api/profile"
	Health  = "/api/health"

	Uploads = "/uploads"
)

// AuthErrorWithMessage returns the auth error page URL carrying message
func AuthErrorWithMessage(message string) string {
	return AuthError + "?message=" + url.QueryEscape(message)
}

// GoogleLoginFrom returns the provider login URL that returns to from afterwards
func GoogleLoginFrom(from string) string {
	return GoogleLogin + "?from=" + url.QueryEscape(from)
}
