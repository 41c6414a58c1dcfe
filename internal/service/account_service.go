package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/db"
	"github.com/networkrad/internal/domain"
	"github.com/networkrad/internal/upload"
	"github.com/networkrad/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// accountService implements the AccountService interface
type accountService struct {
	database *db.DB
	photos   domain.PhotoStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(database *db.DB, photos domain.PhotoStore, logger *slog.Logger) domain.AccountService {
	return &accountService{
		database: database,
		photos:   photos,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup registers a new email/password account
func (s *accountService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Profile, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, domain.ErrRequiredFieldMissing
	}

	password, err := domain.NewPassword(req.Password, req.ConfirmPassword)
	if err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := validation.ValidateFullName(name); err != nil {
		return nil, domain.WrapValidationError("name", err)
	}
	if name == "" {
		name = email.LocalPart()
	}

	if _, err := s.database.GetUserByEmail(ctx, email.String()); err == nil {
		s.logger.InfoContext(ctx, "signup for existing email rejected", "email", email.String())
		return nil, domain.ErrAccountAlreadyExists
	} else if !errors.Is(err, db.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to look up email", "error", err)
		return nil, domain.WrapDatabaseOperation("find user by email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password.String()), constants.BcryptCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, err
	}

	user := db.NewUser(email.String(), string(hash), name)
	if err := s.database.CreateUser(ctx, user); err != nil {
		// Lost a race against a concurrent signup
		if errors.Is(err, db.ErrDuplicate) {
			return nil, domain.ErrAccountAlreadyExists
		}
		s.logger.ErrorContext(ctx, "failed to create user", "email", email.String(), "error", err)
		return nil, domain.WrapDatabaseOperation("create user", err)
	}

	s.logger.InfoContext(ctx, "account created", "user_id", user.ID)
	return toProfile(user, domain.ProviderPassword), nil
}

// Login verifies an email/password pair
func (s *accountService) Login(ctx context.Context, req domain.LoginRequest) (*domain.Profile, error) {
	email := domain.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.ErrRequiredFieldMissing
	}

	user, err := s.database.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "failed to look up email", "error", err)
		return nil, domain.WrapDatabaseOperation("find user by email", err)
	}

	// Google-only accounts have no password to check against
	if !user.HasPassword() {
		s.logger.InfoContext(ctx, "password login for passwordless account", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return toProfile(user, domain.ProviderPassword), nil
}

// LinkOAuthAccount finds or creates the account for an external identity.
// Lookup order is provider subject, then email (linking an existing account),
// then a new password-less account.
func (s *accountService) LinkOAuthAccount(ctx context.Context, identity domain.OAuthIdentity) (*domain.Profile, error) {
	email := domain.NormalizeEmail(identity.Email)
	if email == "" || identity.Subject == "" {
		return nil, domain.ErrOAuthProfileInvalid
	}
	name := strings.TrimSpace(identity.Name)

	user, err := s.database.GetUserByGoogleID(ctx, identity.Subject)
	switch {
	case err == nil:
		user.Email = email
		s.refreshFromIdentity(user, name, identity.Picture)
		if err := s.database.UpdateUser(ctx, user); err != nil {
			return nil, s.oauthWriteError(ctx, "update google user", err)
		}
		return toProfile(user, domain.ProviderGoogle), nil
	case !errors.Is(err, db.ErrNotFound):
		return nil, domain.WrapDatabaseOperation("find user by google id", err)
	}

	user, err = s.database.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.GoogleID = identity.Subject
		s.refreshFromIdentity(user, name, identity.Picture)
		if err := s.database.UpdateUser(ctx, user); err != nil {
			return nil, s.oauthWriteError(ctx, "link google account", err)
		}
		s.logger.InfoContext(ctx, "linked google account to existing user", "user_id", user.ID)
		return toProfile(user, domain.ProviderGoogle), nil
	case !errors.Is(err, db.ErrNotFound):
		return nil, domain.WrapDatabaseOperation("find user by email", err)
	}

	if name == "" {
		name = domain.LocalPart(email)
	}
	user = db.NewUser(email, "", name)
	user.GoogleID = identity.Subject
	user.ProfilePhoto = identity.Picture
	if err := s.database.CreateUser(ctx, user); err != nil {
		return nil, s.oauthWriteError(ctx, "create google user", err)
	}

	s.logger.InfoContext(ctx, "account created from google login", "user_id", user.ID)
	return toProfile(user, domain.ProviderGoogle), nil
}

// refreshFromIdentity copies provider-supplied display data onto the account.
// A photo the user uploaded is never replaced by the provider avatar.
func (s *accountService) refreshFromIdentity(user *db.User, name, picture string) {
	if name != "" {
		user.Name = name
	}
	if picture != "" && !upload.IsLocal(user.ProfilePhoto) {
		user.ProfilePhoto = picture
	}
}

func (s *accountService) oauthWriteError(ctx context.Context, op string, err error) error {
	if errors.Is(err, db.ErrDuplicate) {
		return domain.ErrAccountAlreadyExists
	}
	s.logger.ErrorContext(ctx, "failed to store oauth account", "operation", op, "error", err)
	return domain.WrapDatabaseOperation(op, err)
}

// GetProfile returns the profile of an account
func (s *accountService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(user, ""), nil
}

// UpdateProfile applies profile edits and an optional new photo
func (s *accountService) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Blank full name keeps the current one
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if err := validation.ValidateFullName(name); err != nil {
			return nil, domain.WrapValidationError("fullName", err)
		}
		if name != "" {
			user.Name = name
		}
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if err := validation.ValidatePhone(phone); err != nil {
			return nil, domain.WrapValidationError("phone", err)
		}
		user.Phone = phone
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if err := validation.ValidateAddress(address); err != nil {
			return nil, domain.WrapValidationError("address", err)
		}
		user.Address = address
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, domain.WrapValidationError("bio", err)
		}
		user.Bio = bio
	}
	if req.DOB != nil {
		dob, err := domain.ParseDateOfBirth(*req.DOB, s.now())
		if err != nil {
			return nil, err
		}
		user.DOB = dob
	}

	oldPhoto := user.ProfilePhoto
	newPhoto := ""
	if req.Photo != nil {
		newPhoto, err = s.photos.Save(req.Photo)
		if err != nil {
			s.logger.WarnContext(ctx, "rejected profile photo", "user_id", userID, "error", err)
			return nil, err
		}
		user.ProfilePhoto = newPhoto
	}

	if err := s.database.UpdateUser(ctx, user); err != nil {
		if newPhoto != "" {
			s.removePhoto(ctx, newPhoto)
		}
		if errors.Is(err, db.ErrNotFound) {
			return nil, domain.WrapAccountNotFound(userID, err)
		}
		s.logger.ErrorContext(ctx, "failed to update profile", "user_id", userID, "error", err)
		return nil, domain.WrapDatabaseOperation("update user", err)
	}

	if newPhoto != "" && oldPhoto != "" && oldPhoto != newPhoto {
		s.removePhoto(ctx, oldPhoto)
	}

	s.logger.InfoContext(ctx, "profile updated", "user_id", userID, "photo_changed", newPhoto != "")
	return toProfile(user, ""), nil
}

// DeleteAccount removes an account and its stored photo
func (s *accountService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.database.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domain.WrapAccountNotFound(userID, err)
		}
		s.logger.ErrorContext(ctx, "failed to delete user", "user_id", userID, "error", err)
		return domain.WrapDatabaseOperation("delete user", err)
	}

	if user.ProfilePhoto != "" {
		s.removePhoto(ctx, user.ProfilePhoto)
	}

	s.logger.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *accountService) getUser(ctx context.Context, userID string) (*db.User, error) {
	user, err := s.database.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, domain.WrapAccountNotFound(userID, err)
		}
		s.logger.ErrorContext(ctx, "failed to load user", "user_id", userID, "error", err)
		return nil, domain.WrapDatabaseOperation("find user by id", err)
	}
	return user, nil
}

// removePhoto deletes a stored photo; remote avatar URLs are left alone
func (s *accountService) removePhoto(ctx context.Context, path string) {
	if !upload.IsLocal(path) {
		return
	}
	if err := s.photos.Remove(path); err != nil {
		s.logger.WarnContext(ctx, "failed to remove profile photo", "path", path, "error", err)
	}
}

// toProfile maps an account row to its public profile. An empty provider is
// derived from how the account can sign in.
func toProfile(user *db.User, provider string) *domain.Profile {
	if provider == "" {
		provider = domain.ProviderPassword
		if !user.HasPassword() && user.IsGoogleLinked() {
			provider = domain.ProviderGoogle
		}
	}
	return &domain.Profile{
		ID:            user.ID,
		FullName:      user.Name,
		Username:      domain.LocalPart(user.Email),
		Email:         user.Email,
		Phone:         user.Phone,
		Address:       user.Address,
		DOB:           user.DOB,
		Bio:           user.Bio,
		CreatedAt:     user.CreatedAt,
		EmailVerified: user.IsGoogleLinked(),
		ProfilePhoto:  user.ProfilePhoto,
		Provider:      provider,
	}
}
