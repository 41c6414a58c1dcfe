package http

import (
	"html"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/auth/token"
	"github.com/networkrad/internal/apipaths"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
)

// googleStart sends the browser into the provider login, asking to come back
// to the completion handler
func (s *Server) googleStart(c *gin.Context) {
	if s.authService == nil {
		sendAuthError(c, http.StatusNotFound, constants.MsgGoogleLoginDisabled)
		return
	}
	c.Redirect(http.StatusFound, apipaths.GoogleLoginFrom(s.config.BaseURL+apipaths.GoogleComplete))
}

// googleComplete turns the provider token into an account and a session
func (s *Server) googleComplete(c *gin.Context) {
	if s.authService == nil {
		sendAuthError(c, http.StatusNotFound, constants.MsgGoogleLoginDisabled)
		return
	}

	identity, ok := s.oauthIdentity(c)
	if !ok {
		c.Redirect(http.StatusFound, apipaths.AuthErrorWithMessage(constants.MsgOAuthFailed))
		return
	}

	profile, err := s.accounts.LinkOAuthAccount(c.Request.Context(), identity)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "google login failed", "error", err)
		c.Redirect(http.StatusFound, apipaths.AuthErrorWithMessage(constants.MsgProfileCreateFailed))
		return
	}

	// The session replaces the handshake token from here on
	s.authService.TokenService().Reset(c.Writer)
	s.startSession(c, http.StatusOK, profile)
}

// oauthIdentity reads the Google user from the go-pkgz token cookie, if valid
func (s *Server) oauthIdentity(c *gin.Context) (domain.OAuthIdentity, bool) {
	var (
		user  token.User
		found bool
	)

	authMiddleware := s.authService.Middleware()
	handler := authMiddleware.Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := token.GetUserInfo(r); err == nil {
			user = u
			found = true
		}
	}))
	handler.ServeHTTP(c.Writer, c.Request)

	if !found {
		return domain.OAuthIdentity{}, false
	}

	return domain.OAuthIdentity{
		Provider: domain.ProviderGoogle,
		Subject:  user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Picture:  user.Picture,
	}, true
}

// authErrorPage shows an OAuth failure message
func (s *Server) authErrorPage(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		message = constants.MsgAuthFailed
	}
	c.Data(http.StatusUnauthorized, "text/html; charset=utf-8", []byte(
		"<h1>Google authentication error</h1><p>"+html.EscapeString(message)+
			`</p><a href="/">Return to login</a>`,
	))
}
