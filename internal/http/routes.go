package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/networkrad/internal/apipaths"
	"github.com/networkrad/internal/constants"
)

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// go-pkgz/auth expects paths relative to where it is mounted
	if s.authService != nil {
		authHandler, _ := s.authService.Handlers()
		s.engine.Any(apipaths.OAuthMount+"/*path", oauthFailureRedirect(wrapAuthHandler(authHandler, apipaths.OAuthMount)))
	}

	s.engine.GET(apipaths.Health, s.health)

	// Email/password auth
	s.engine.POST(apipaths.Signup, s.signup)
	s.engine.POST(apipaths.Login, s.login)
	s.engine.GET(apipaths.Logout, s.logout)

	// Google auth
	s.engine.GET(apipaths.GoogleStart, s.googleStart)
	s.engine.GET(apipaths.GoogleComplete, s.googleComplete)
	s.engine.GET(apipaths.AuthError, s.authErrorPage)

	// Pages behind login
	pages := s.engine.Group("")
	pages.Use(s.ensureAuthenticated())
	{
		pages.GET(apipaths.Dashboard, s.servePage("dashboard.html"))
		pages.GET(apipaths.AccountSettings, s.servePage("account-settings.html"))
	}

	// API behind login
	api := s.engine.Group("")
	api.Use(s.ensureAPIAuthenticated())
	{
		api.GET(apipaths.Me, s.getCurrentUser)
		api.GET(apipaths.Profile, s.getProfile)
		api.POST(apipaths.UpdateProfile, s.updateProfile)
		api.DELETE(apipaths.DeleteAccount, s.deleteAccount)
	}

	// Uploaded photos and the static front-end
	s.engine.Static(apipaths.Uploads, s.config.Uploads.Dir)
	s.engine.NoRoute(s.serveStatic)
}

// servePage serves an HTML file from the static directory
func (s *Server) servePage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.File(filepath.Join(s.config.StaticDir, name))
	}
}

// serveStatic serves front-end files. Unknown paths fall back to the
// dashboard for logged-in users and to index.html for everyone else.
func (s *Server) serveStatic(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if file, ok := s.staticFile(c.Request.URL.Path); ok {
			c.File(file)
			return
		}
	}

	if _, ok := s.sessions.User(c.Request); ok {
		c.Redirect(http.StatusFound, apipaths.Dashboard)
		return
	}
	c.File(filepath.Join(s.config.StaticDir, "index.html"))
}

// staticFile resolves a request path to a regular file inside StaticDir
func (s *Server) staticFile(urlPath string) (string, bool) {
	clean := filepath.Clean("/" + strings.TrimPrefix(urlPath, "/"))
	if clean == "/" {
		return "", false
	}
	file := filepath.Join(s.config.StaticDir, filepath.FromSlash(clean))
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return "", false
	}
	return file, true
}

// wrapAuthHandler wraps an http.Handler for use with Gin, stripping the prefix
// go-pkgz/auth expects paths relative to where it's mounted
func wrapAuthHandler(handler http.Handler, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		originalPath := c.Request.URL.Path
		c.Request.URL.Path = strings.TrimPrefix(originalPath, prefix)

		handler.ServeHTTP(c.Writer, c.Request)

		c.Request.URL.Path = originalPath
	}
}

// oauthFailureRedirect sends failed provider callbacks (consent declined, bad
// state, failed code exchange) to the auth error page instead of the
// provider's JSON error
func oauthFailureRedirect(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasSuffix(c.Request.URL.Path, apipaths.OAuthCallbackSuffix) {
			next(c)
			return
		}

		if reason := c.Query("error"); reason != "" {
			slog.WarnContext(c.Request.Context(), "oauth callback rejected by provider", "error", reason)
			c.Redirect(http.StatusFound, apipaths.AuthErrorWithMessage(constants.MsgOAuthFailed))
			return
		}

		original := c.Writer
		buffered := &bufferedResponse{ResponseWriter: original}
		c.Writer = buffered
		next(c)
		c.Writer = original

		if buffered.status >= http.StatusBadRequest {
			slog.WarnContext(c.Request.Context(), "oauth callback failed",
				"status", buffered.status,
				"response", truncate(buffered.body.String(), 200),
			)
			original.Header().Del("Content-Type")
			c.Redirect(http.StatusFound, apipaths.AuthErrorWithMessage(constants.MsgOAuthFailed))
			return
		}

		if buffered.status != 0 {
			original.WriteHeader(buffered.status)
		}
		original.Write(buffered.body.Bytes())
	}
}

// bufferedResponse holds back the status and body so a failed response can be
// replaced. Headers go straight to the wrapped writer.
type bufferedResponse struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bufferedResponse) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedResponse) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *bufferedResponse) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
