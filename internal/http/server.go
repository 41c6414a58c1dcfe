package http

import (
	"context"
	"crypto/sha1"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/auth"
	"github.com/go-pkgz/auth/avatar"
	"github.com/go-pkgz/auth/provider"
	"github.com/go-pkgz/auth/token"
	"github.com/networkrad/internal/config"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
	"github.com/networkrad/internal/session"
	"github.com/networkrad/internal/system"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Server wraps the HTTP server
type Server struct {
	config      *config.Config
	accounts    domain.AccountService
	sessions    *session.Manager
	stats       *system.Collector
	engine      *gin.Engine
	authService *auth.Service
}

// Dependencies are the collaborators the handlers use
type Dependencies struct {
	Accounts domain.AccountService
	Sessions *session.Manager
	Stats    *system.Collector
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()

	// Middleware - order matters
	engine.Use(gin.CustomRecovery(recoveryHandler))
	engine.Use(securityHeadersMiddleware())
	engine.Use(corsMiddleware(cfg))
	engine.Use(cacheControlMiddleware())
	engine.Use(loggerMiddleware())
	engine.Use(jsonBodyLimitMiddleware(constants.MaxJSONBodyBytes))
	engine.Use(errorPageMiddleware())

	engine.MaxMultipartMemory = constants.MultipartMemory

	// Google login is optional
	var authService *auth.Service
	if cfg.Google.Enabled() {
		authService = initAuthService(cfg)
		slog.Info("google login enabled", "client_id", truncate(cfg.Google.ClientID, 8), "redirect_uri", cfg.Google.RedirectURI)
	} else {
		slog.Info("google login disabled, GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET not set")
	}

	server := &Server{
		config:      cfg,
		accounts:    deps.Accounts,
		sessions:    deps.Sessions,
		stats:       deps.Stats,
		engine:      engine,
		authService: authService,
	}

	server.setupRoutes()

	return server
}

// initAuthService initializes go-pkgz/auth with the Google provider. The
// handlers are mounted under /oauth, so the callback registered with Google
// is BASE_URL/oauth/google/callback.
func initAuthService(cfg *config.Config) *auth.Service {
	opts := auth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return cfg.Google.TokenSecret, nil
		}),
		TokenDuration:  5 * time.Minute,
		CookieDuration: cfg.Session.MaxAge,
		Issuer:         "networkrad",
		URL:            cfg.BaseURL + "/oauth",
		AvatarStore:    avatar.NewNoOp(),
		SecureCookies:  cfg.Session.Secure,
		DisableXSRF:    true,
		Validator: token.ValidatorFunc(func(_ string, claims token.Claims) bool {
			if claims.User == nil {
				slog.Warn("JWT validation failed: no user in claims")
				return false
			}
			return strings.HasPrefix(claims.User.ID, "google_")
		}),
	}

	authService := auth.NewService(opts)
	// The built-in google provider asks for the profile scope only and never
	// maps the email, which account linking depends on
	authService.AddCustomProvider("google", auth.Client{
		Cid:     cfg.Google.ClientID,
		Csecret: cfg.Google.ClientSecret,
	}, provider.CustomHandlerOpt{
		Endpoint:  google.Endpoint,
		InfoURL:   googleUserInfoURL,
		Scopes:    []string{"openid", "email", "profile"},
		MapUserFn: mapGoogleUser,
	})

	return authService
}

// mapGoogleUser builds the token user from the OpenID userinfo response
func mapGoogleUser(data provider.UserData, _ []byte) token.User {
	return token.User{
		ID:      "google_" + token.HashID(sha1.New(), data.Value("sub")),
		Name:    data.Value("name"),
		Email:   data.Value("email"),
		Picture: data.Value("picture"),
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.ServerAddress
	if addr == "" {
		addr = ":5000"
	}

	// Configure server with timeouts
	server := &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    constants.ServerReadTimeout,
		WriteTimeout:   constants.ServerWriteTimeout,
		IdleTimeout:    constants.ServerIdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr, "base_url", s.config.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// HSTS (only if using HTTPS)
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// corsMiddleware adds CORS headers with configurable origin
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.CORS.AllowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheControlMiddleware keeps authenticated and auth-flow responses out of caches
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case strings.HasPrefix(path, "/api/"),
			strings.HasPrefix(path, "/auth/"),
			strings.HasPrefix(path, "/oauth/"),
			path == "/dashboard",
			path == "/account-settings":
			c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Writer.Header().Set("Pragma", "no-cache")
			c.Writer.Header().Set("Expires", "0")
		case strings.HasPrefix(path, "/uploads/"):
			// Photo names are unique per upload
			c.Writer.Header().Set("Cache-Control", "public, max-age=86400")
		}

		c.Next()
	}
}

// jsonBodyLimitMiddleware limits the size of JSON and urlencoded request bodies
func jsonBodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodDelete && c.Request.Method != http.MethodOptions {
			contentType := c.GetHeader("Content-Type")
			if strings.Contains(contentType, "application/json") || strings.Contains(contentType, "application/x-www-form-urlencoded") {
				if c.Request.ContentLength > maxBytes {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
						Error: "Request body too large",
					})
					return
				}
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			}
		}
		c.Next()
	}
}

// loggerMiddleware logs HTTP requests
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.Request.RemoteAddr,
		)
	}
}
