package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/networkrad/internal/apipaths"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/domain"
	"github.com/networkrad/internal/httputil"
)

// multipartOverhead allows room for form fields next to the photo
const multipartOverhead = 1 << 20

// getProfile returns the logged-in user's profile
func (s *Server) getProfile(c *gin.Context) {
	user, _ := getUserFromContext(c)

	profile, err := s.accounts.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			sendAuthError(c, http.StatusNotFound, domain.PublicMessage(err))
			return
		}
		slog.ErrorContext(c.Request.Context(), "failed to fetch profile", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
}

// updateProfile applies profile edits from a multipart, urlencoded or JSON body
func (s *Server) updateProfile(c *gin.Context) {
	user, _ := getUserFromContext(c)

	req, err := s.readProfileUpdate(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendDomainError(c, domain.ErrPhotoTooLarge)
			return
		}
		slog.WarnContext(c.Request.Context(), "invalid profile update", "error", err)
		sendAuthError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	profile, err := s.accounts.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		sendDomainError(c, err)
		return
	}

	// Keep the provider the user signed in with
	updated := domain.BuildSessionUser(profile)
	updated.Provider = user.Provider
	if err := s.sessions.SetUser(c.Writer, c.Request, updated); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	if httputil.WantsJSON(c.Request) {
		c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
		return
	}
	c.Redirect(http.StatusFound, apipaths.Dashboard)
}

// profileUpdateBody is the JSON form of a profile update
type profileUpdateBody struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	DOB      *string `json:"dob"`
	Bio      *string `json:"bio"`
}

func (s *Server) readProfileUpdate(c *gin.Context) (domain.UpdateProfileRequest, error) {
	if httputil.IsJSONBody(c.Request) {
		var body profileUpdateBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return domain.UpdateProfileRequest{}, err
		}
		return domain.UpdateProfileRequest{
			FullName: body.FullName,
			Phone:    body.Phone,
			Address:  body.Address,
			DOB:      body.DOB,
			Bio:      body.Bio,
		}, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Uploads.MaxBytes+multipartOverhead)
	if err := c.Request.ParseMultipartForm(constants.MultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return domain.UpdateProfileRequest{}, err
	}

	req := domain.UpdateProfileRequest{
		FullName: httputil.OptionalFormValue(c, "fullName"),
		Phone:    httputil.OptionalFormValue(c, "phone"),
		Address:  httputil.OptionalFormValue(c, "address"),
		DOB:      httputil.OptionalFormValue(c, "dob"),
		Bio:      httputil.OptionalFormValue(c, "bio"),
	}

	photo, err := c.FormFile("profilePhoto")
	switch {
	case err == nil:
		req.Photo = photo
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return req, err
	}
	return req, nil
}

// deleteAccount removes the account, then ends the session
func (s *Server) deleteAccount(c *gin.Context) {
	user, _ := getUserFromContext(c)

	if err := s.accounts.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		sendDomainError(c, err)
		return
	}

	if err := s.sessions.Destroy(c.Writer, c.Request); err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	if s.authService != nil {
		s.authService.TokenService().Reset(c.Writer)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// health reports liveness and a host snapshot
func (s *Server) health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"service": "networkrad",
		"google":  s.authService != nil,
	}
	if s.stats != nil {
		resp["system"] = s.stats.GetStats(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}
