// Package main is the entry point for the medical association server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal - its job is to:
// 1. Read configuration (.env + environment, via internal/config)
// 2. Create dependencies (logger, store, blob store, login limiter)
// 3. Bootstrap the admin credential and start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// This project has three: cmd/server, cmd/seed (sample data) and cmd/admin
// (out-of-band credential administration).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/medassoc/internal/config"
	"github.com/sakif/medassoc/internal/middleware"
	"github.com/sakif/medassoc/internal/repository/backend"
	"github.com/sakif/medassoc/internal/server"
	"github.com/sakif/medassoc/internal/upload"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// .env is optional; real environment variables win over it.
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	if cfg.Auth.SecretKey == "" {
		logger.Warn("SECRET_KEY not set; using a random per-process key, tokens will not survive a restart")
	}

	// === 3. OPEN THE STORE ===
	// STORAGE_URL picks SQLite, MongoDB or PostgreSQL.
	store, err := backend.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	// === 4. UPLOADS AND LOGIN THROTTLE ===
	blobs, err := upload.OpenStore(ctx, cfg.Upload, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("opening upload store: %w", err)
	}

	limiter, err := newLimiter(cfg.Throttle, logger)
	if err != nil {
		store.Close()
		return err
	}

	// === 5. CREATE, BOOTSTRAP AND START THE SERVER ===
	srv, err := server.New(cfg, server.Deps{
		Store:   store,
		Blobs:   blobs,
		Limiter: limiter,
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	if err := srv.Bootstrap(ctx); err != nil {
		store.Close()
		return err
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	return srv.Start()
}

// newLimiter shares login attempts across replicas through Redis when
// REDIS_URL is set, and counts them in-process otherwise.
func newLimiter(cfg config.ThrottleConfig, logger *slog.Logger) (middleware.Limiter, error) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(cfg.RatePerMinute, cfg.Burst), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	logger.Info("login throttle backed by redis", slog.String("addr", opts.Addr))
	return middleware.NewRedisLimiter(redis.NewClient(opts), cfg.RatePerMinute), nil
}
