package constants

import "time"

// Password hashing
const (
	// BcryptCost is the work factor for stored password hashes
	BcryptCost = 10
)

// Profile field limits
const (
	MaxFullNameLength = 100
	MaxPhoneLength    = 32
	MaxAddressLength  = 255
	MaxBioLength      = 1000
)

// Public messages returned to clients
const (
	MsgAuthRequired          = "Authentication required"
	MsgAuthFailed            = "Authentication failed."
	MsgOAuthFailed           = "Authentication failed"
	MsgAuthError             = "Authentication error"
	MsgProfileCreateFailed   = "Failed to create profile"
	MsgUnexpectedError       = "An error occurred"
	MsgGoogleLoginDisabled   = "Google login is not configured."
	MsgUnableToUpdateProfile = "Unable to update profile."
	MsgUnableToDeleteAccount = "Unable to delete account."
)

// Timeout and interval constants
const (
	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 30 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout
	ServerWriteTimeout = 120 * time.Second

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 120 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 10 * time.Second

	// OrphanUploadMinAge protects uploads whose profile update is still in flight
	OrphanUploadMinAge = time.Hour

	// JanitorTaskTimeout bounds a single maintenance run
	JanitorTaskTimeout = 2 * time.Minute
)

// Request body limits
const (
	// MaxJSONBodyBytes caps JSON and urlencoded request bodies
	MaxJSONBodyBytes = 1 << 20

	// MultipartMemory is how much of a multipart form is buffered in memory
	MultipartMemory = 8 << 20
)
