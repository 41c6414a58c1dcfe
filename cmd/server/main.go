package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/networkrad/internal/cleanup"
	"github.com/networkrad/internal/config"
	"github.com/networkrad/internal/constants"
	"github.com/networkrad/internal/db"
	"github.com/networkrad/internal/http"
	"github.com/networkrad/internal/logger"
	"github.com/networkrad/internal/service"
	"github.com/networkrad/internal/session"
	"github.com/networkrad/internal/system"
	"github.com/networkrad/internal/upload"
)

func main() {
	// Load .env file if it exists (optional, won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.InitLogger(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) error {
	// Initialize database
	database, err := db.Init(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer database.Close()
	appLogger.Info("database ready", "driver", database.Driver())

	// Session store. The memory backend needs the janitor to purge expired
	// entries; redis expires them itself.
	var (
		backend session.Backend
		purger  cleanup.SessionPurger
	)
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisBackend, err := session.NewRedisBackend(ctx, cfg.Session.RedisURL, cfg.Session.KeyPrefix)
		if err != nil {
			return err
		}
		defer redisBackend.Close()
		backend = redisBackend
	default:
		memoryBackend := session.NewMemoryBackend()
		backend = memoryBackend
		purger = memoryBackend
		if cfg.IsProduction() {
			appLogger.Warn("using in-memory session store in production, sessions are lost on restart")
		}
	}
	appLogger.Info("session store ready", "store", cfg.Session.Store)

	sessions := session.NewManager(backend, cfg.Session.Secret, session.CookieOptions{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})

	photos, err := upload.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return err
	}

	accounts := service.NewAccountService(database, photos, appLogger)

	janitor := cleanup.NewCleanupManager(purger, database, photos, appLogger)
	if err := janitor.Start(cfg.JanitorSchedule); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		janitor.Stop(stopCtx)
	}()

	server := http.NewServer(cfg, http.Dependencies{
		Accounts: accounts,
		Sessions: sessions,
		Stats:    system.NewCollector(cfg.Uploads.Dir, database),
	})

	return server.Run(ctx)
}
