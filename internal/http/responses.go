package http

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/networkrad/internal/apipaths"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
	"github.com/networkrad/internal/httputil"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UserResponse wraps the session user
type UserResponse struct {
	User *domain.SessionUser `json:"user"`
}

// ProfileResponse wraps a profile
type ProfileResponse struct {
	Profile *domain.Profile `json:"profile"`
}

// sendAuthSuccess answers a successful login: JSON clients get the session
// user, browsers are sent to the dashboard
func sendAuthSuccess(c *gin.Context, status int, user *domain.SessionUser) {
	if httputil.WantsJSON(c.Request) {
		c.JSON(status, UserResponse{User: user})
		return
	}
	c.Redirect(http.StatusFound, apipaths.Dashboard)
}

// sendAuthError answers with a JSON error or a plain text message
func sendAuthError(c *gin.Context, status int, message string) {
	if httputil.WantsJSON(c.Request) {
		c.JSON(status, ErrorResponse{Error: message})
		return
	}
	c.String(status, message)
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPhotoTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsConflictError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sendDomainError answers with the public message of a client error. Anything
// else is handed to the error page middleware.
func sendDomainError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		c.Abort()
		return
	}
	sendAuthError(c, status, domain.PublicMessage(err))
}

// errorPageMiddleware renders errors attached by handlers and recovered panics
func errorPageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderServerError(c, c.Errors.Last().Err)
	}
}

// recoveryHandler is used with gin.CustomRecovery
func recoveryHandler(c *gin.Context, recovered any) {
	renderServerError(c, fmt.Errorf("panic: %v", recovered))
	c.Abort()
}

func renderServerError(c *gin.Context, err error) {
	slog.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)

	message := constants.MsgUnexpectedError
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && !domain.IsInfrastructureError(err) {
		message = domainErr.Message
	}

	if httputil.WantsJSON(c.Request) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   constants.MsgAuthError,
			Details: message,
		})
		return
	}

	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(
		"<h1>Something went wrong</h1><p>"+html.EscapeString(message)+
			`</p><a href="/">Return to login</a>`,
	))
}
