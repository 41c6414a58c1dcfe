package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	ServerAddress   string
	BaseURL         string // Public URL of this server, without trailing slash
	Environment     string
	StaticDir       string
	Database        DatabaseConfig
	Session         SessionConfig
	Google          GoogleConfig
	Uploads         UploadConfig
	CORS            CORSConfig
	JanitorSchedule string
}

// DatabaseConfig holds user store configuration
type DatabaseConfig struct {
	Driver string // sqlite or postgres
	Path   string // sqlite file path
	URL    string // postgres DSN
}

// SessionConfig holds session cookie and store configuration
type SessionConfig struct {
	Secret     string
	CookieName string
	MaxAge     time.Duration
	Store      string // memory or redis
	RedisURL   string
	KeyPrefix  string
	Secure     bool
}

// GoogleConfig holds Google OAuth configuration
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	TokenSecret  string // signs the OAuth handshake JWT cookie
	RedirectURI  string // derived from BaseURL; register this with Google
}

// UploadConfig holds profile photo storage configuration
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultUploadMaxBytes = 5 << 20
)

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	port := getEnv("PORT", "5000")
	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:"+port), "/")
	environment := getEnv("NODE_ENV", "development")

	maxAge, err := time.ParseDuration(getEnv("SESSION_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %w", err)
	}

	uploadMax := int64(defaultUploadMaxBytes)
	if raw := os.Getenv("UPLOAD_MAX_BYTES"); raw != "" {
		uploadMax, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || uploadMax <= 0 {
			return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %q", raw)
		}
	}

	sessionSecret := os.Getenv("SESSION_SECRET")

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":"+port),
		BaseURL:       baseURL,
		Environment:   environment,
		StaticDir:     getEnv("STATIC_DIR", "../frontend"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
			Path:   getEnv("DATABASE_PATH", "./data/networkrad.db"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			Secret:     sessionSecret,
			CookieName: getEnv("SESSION_COOKIE_NAME", "networkrad.sid"),
			MaxAge:     maxAge,
			Store:      strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "sess:"),
			Secure:     environment == "production",
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			TokenSecret:  getEnv("OAUTH_TOKEN_SECRET", sessionSecret),
			RedirectURI:  baseURL + "/oauth/google/callback",
		},
		Uploads: UploadConfig{
			Dir:      getEnv("UPLOADS_DIR", "./uploads"),
			MaxBytes: uploadMax,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparatedList(getEnv("CORS_ALLOWED_ORIGINS", baseURL)),
		},
		JanitorSchedule: getEnv("JANITOR_SCHEDULE", "@every 10m"),
	}

	return cfg, nil
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("missing required environment variable SESSION_SECRET")
	}
	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		if c.Google.ClientID == "" {
			return errors.New("missing required environment variable GOOGLE_CLIENT_ID")
		}
		return errors.New("missing required environment variable GOOGLE_CLIENT_SECRET")
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q (use memory or redis)", c.Session.Store)
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("missing required environment variable DATABASE_URL for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (use sqlite or postgres)", c.Database.Driver)
	}
	return nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseDSN returns the data source name for the configured driver
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == DriverPostgres {
		return c.Database.URL
	}
	return c.Database.Path
}

// Enabled reports whether Google login is configured
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
