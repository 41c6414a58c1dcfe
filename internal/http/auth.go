package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/networkrad/internal/apipaths"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
	"github.com/networkrad/internal/httputil"
)

const ctxUserKey = "user"

// signup registers an email/password account and logs it in
func (s *Server) signup(c *gin.Context) {
	var req domain.SignupRequest
	if err := httputil.Bind(c, &req); err != nil {
		slog.WarnContext(c.Request.Context(), "invalid signup request", "error", err)
		sendAuthError(c, http.StatusBadRequest, domain.ErrRequiredFieldMissing.Message)
		return
	}

	profile, err := s.accounts.Signup(c.Request.Context(), req)
	if err != nil {
		sendDomainError(c, err)
		return
	}

	s.startSession(c, http.StatusCreated, profile)
}

// login verifies email/password credentials and starts a session
func (s *Server) login(c *gin.Context) {
	var req domain.LoginRequest
	if err := httputil.Bind(c, &req); err != nil {
		slog.WarnContext(c.Request.Context(), "invalid login request", "error", err)
		sendAuthError(c, http.StatusBadRequest, domain.ErrRequiredFieldMissing.Message)
		return
	}

	profile, err := s.accounts.Login(c.Request.Context(), req)
	if err != nil {
		if domain.IsUnauthorizedError(err) {
			slog.InfoContext(c.Request.Context(), "login failed", "email", domain.NormalizeEmail(req.Email))
		}
		sendDomainError(c, err)
		return
	}

	s.startSession(c, http.StatusOK, profile)
}

// startSession stores the session user for profile and answers the client
func (s *Server) startSession(c *gin.Context, status int, profile *domain.Profile) {
	user := domain.BuildSessionUser(profile)
	if err := s.sessions.SetUser(c.Writer, c.Request, user); err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	slog.InfoContext(c.Request.Context(), "session started", "user_id", user.ID, "provider", user.Provider)
	sendAuthSuccess(c, status, &user)
}

// logout ends the session and any OAuth token, then goes home
func (s *Server) logout(c *gin.Context) {
	if err := s.sessions.Destroy(c.Writer, c.Request); err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	if s.authService != nil {
		s.authService.TokenService().Reset(c.Writer)
	}
	c.Redirect(http.StatusFound, apipaths.Home)
}

// currentUser returns the session user. A valid Google token without a
// session (e.g. the completion redirect was skipped) is upgraded into one.
func (s *Server) currentUser(c *gin.Context) (*domain.SessionUser, bool) {
	if user, ok := s.sessions.User(c.Request); ok {
		return user, true
	}
	if s.authService == nil {
		return nil, false
	}

	identity, ok := s.oauthIdentity(c)
	if !ok {
		return nil, false
	}
	profile, err := s.accounts.LinkOAuthAccount(c.Request.Context(), identity)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "failed to restore session from oauth token", "error", err)
		return nil, false
	}
	user := domain.BuildSessionUser(profile)
	if err := s.sessions.SetUser(c.Writer, c.Request, user); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to save session", "error", err)
		return nil, false
	}
	return &user, true
}

// ensureAuthenticated sends anonymous page requests back to the login page
func (s *Server) ensureAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.currentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, apipaths.Home)
			c.Abort()
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// ensureAPIAuthenticated rejects anonymous API requests with 401
func (s *Server) ensureAPIAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: constants.MsgAuthRequired})
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// getUserFromContext extracts the authenticated user set by the guards
func getUserFromContext(c *gin.Context) (*domain.SessionUser, bool) {
	if user, exists := c.Get(ctxUserKey); exists {
		if u, ok := user.(*domain.SessionUser); ok {
			return u, true
		}
	}
	return nil, false
}

// getCurrentUser returns the session user
func (s *Server) getCurrentUser(c *gin.Context) {
	user, _ := getUserFromContext(c)
	c.JSON(http.StatusOK, UserResponse{User: user})
}
