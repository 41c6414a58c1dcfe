package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupJSON(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	rec := c.signup("  Ada@Example.com ", "secret1")
	resp := decode[UserResponse](t, rec)

	require.NotNil(t, resp.User)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "ada", resp.User.Name)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, domain.ProviderPassword, resp.User.Provider)
	assert.Nil(t, resp.User.Picture)
	assert.Contains(t, c.cookies, env.cfg.Session.CookieName)

	me := decode[UserResponse](t, c.get("/api/me"))
	assert.Equal(t, resp.User.ID, me.User.ID)
}

func TestSignupFormRedirects(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	rec := c.postForm("/signup", url.Values{
		"email":           {"ada@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
		"name":            {"Ada Lovelace"},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = c.get("/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body(rec), "dashboard")
}

func TestSignupErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		status  int
		message string
	}{
		{
			name:    "missing password",
			body:    map[string]string{"email": "ada@example.com"},
			status:  http.StatusBadRequest,
			message: "Email and password are required.",
		},
		{
			name:    "invalid email",
			body:    map[string]string{"email": "not-an-email", "password": "secret1", "confirmPassword": "secret1"},
			status:  http.StatusBadRequest,
			message: "Email address is invalid.",
		},
		{
			name:    "mismatch",
			body:    map[string]string{"email": "ada@example.com", "password": "secret1", "confirmPassword": "secret2"},
			status:  http.StatusBadRequest,
			message: "Passwords do not match.",
		},
		{
			name:    "short password",
			body:    map[string]string{"email": "ada@example.com", "password": "abc", "confirmPassword": "abc"},
			status:  http.StatusBadRequest,
			message: "Password must be at least 6 characters.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := env.client(t)

			rec := c.postJSON("/signup", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode[ErrorResponse](t, rec).Error)
			assert.NotContains(t, c.cookies, env.cfg.Session.CookieName)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.client(t).signup("ada@example.com", "secret1")

	rec := env.client(t).postJSON("/signup", map[string]string{
		"email":           "ADA@example.com",
		"password":        "another1",
		"confirmPassword": "another1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An account with this email already exists.", decode[ErrorResponse](t, rec).Error)
}

func TestSignupErrorAsText(t *testing.T) {
	env := newTestEnv(t)

	rec := env.client(t).postForm("/signup", url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password are required.", body(rec))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	signedUp := decode[UserResponse](t, env.client(t).signup("ada@example.com", "secret1"))

	c := env.client(t)
	rec := c.postJSON("/login", map[string]string{"email": "ADA@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, signedUp.User.ID, decode[UserResponse](t, rec).User.ID)

	me := decode[UserResponse](t, c.get("/api/me"))
	assert.Equal(t, "ada@example.com", me.User.Email)
}

func TestLoginFormRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.client(t).signup("ada@example.com", "secret1")

	rec := env.client(t).postForm("/login", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.client(t).signup("ada@example.com", "secret1")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"wrong password", map[string]string{"email": "ada@example.com", "password": "nope123"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "bob@example.com", "password": "secret1"}, http.StatusUnauthorized},
		{"missing fields", map[string]string{"email": "ada@example.com"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.client(t)
			rec := c.postJSON("/login", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, c.cookies, env.cfg.Session.CookieName)
		})
	}

	// Unknown email and wrong password are indistinguishable
	wrong := env.client(t).postJSON("/login", map[string]string{"email": "ada@example.com", "password": "nope123"})
	unknown := env.client(t).postJSON("/login", map[string]string{"email": "bob@example.com", "password": "secret1"})
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLoginRegeneratesSession(t *testing.T) {
	env := newTestEnv(t)
	env.client(t).signup("ada@example.com", "secret1")

	c := env.client(t)
	c.postJSON("/login", map[string]string{"email": "ada@example.com", "password": "secret1"})
	first := c.cookies[env.cfg.Session.CookieName].Value
	require.Equal(t, 2, env.backend.Len())

	c.postJSON("/login", map[string]string{"email": "ada@example.com", "password": "secret1"})
	second := c.cookies[env.cfg.Session.CookieName].Value

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, env.backend.Len(), "old session entry is discarded")
}

func TestGuards(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	for _, path := range []string{"/dashboard", "/account-settings"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}

	for _, path := range []string{"/api/me", "/api/profile"} {
		rec := c.get(path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, constants.MsgAuthRequired, decode[ErrorResponse](t, rec).Error)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	c.signup("ada@example.com", "secret1")
	stale := *c.cookies[env.cfg.Session.CookieName]

	rec := c.get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, c.cookies, env.cfg.Session.CookieName)
	assert.Equal(t, 0, env.backend.Len())

	// Replaying the old cookie does not bring the session back
	c.cookies[stale.Name] = &stale
	assert.Equal(t, http.StatusUnauthorized, c.get("/api/me").Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.client(t).get("/logout")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
