// Package backend opens the Store named by the storage URL.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/medassoc/internal/config"
	"github.com/sakif/medassoc/internal/repository"
	"github.com/sakif/medassoc/internal/repository/mongo"
	"github.com/sakif/medassoc/internal/repository/postgres"
	"github.com/sakif/medassoc/internal/repository/sqlite"
)

type Kind string

const (
	SQLite   Kind = "sqlite"
	Mongo    Kind = "mongo"
	Postgres Kind = "postgres"
)

// Target is a parsed storage URL.
type Target struct {
	Kind Kind
	// DSN is what the driver receives: a file path for SQLite, the URL
	// itself for the server stores.
	DSN string
}

// Parse classifies a storage URL. Anything without a scheme is a SQLite path.
func Parse(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("backend: empty storage URL")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{Kind: SQLite, DSN: raw}, nil
	}

	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3", "file":
		if rest == "" {
			return Target{}, fmt.Errorf("backend: %q has no database path", raw)
		}
		return Target{Kind: SQLite, DSN: rest}, nil
	case "mongodb", "mongodb+srv":
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("backend: invalid mongo URL: %w", err)
		}
		return Target{Kind: Mongo, DSN: raw}, nil
	case "postgres", "postgresql":
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("backend: invalid postgres URL: %w", err)
		}
		return Target{Kind: Postgres, DSN: raw}, nil
	default:
		return Target{}, fmt.Errorf("backend: unsupported storage scheme %q", scheme)
	}
}

// Open parses cfg.URL and opens the matching store, creating its schema.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (repository.Store, error) {
	target, err := Parse(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch target.Kind {
	case SQLite:
		if target.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(target.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("backend: creating database directory: %w", err)
			}
		}
		logger.Info("opening store", slog.String("kind", string(SQLite)), slog.String("path", target.DSN))
		db, err := sqlite.New(target.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	case Mongo:
		logger.Info("opening store", slog.String("kind", string(Mongo)), slog.String("database", cfg.Database))
		store, err := mongo.Open(ctx, target.DSN, cfg.Database, cfg.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	case Postgres:
		logger.Info("opening store", slog.String("kind", string(Postgres)))
		ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		store, err := postgres.Open(ctx, target.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("backend: unknown store kind %q", target.Kind)
}
