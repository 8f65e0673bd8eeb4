// Package config loads the process configuration from the environment.
//
// An optional .env file is read first (values already set in the real
// environment win), then every key is resolved through viper with the
// defaults below. Load runs once in main; everything else receives the
// resulting *Config and never reads the environment itself.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretLength is the shortest SECRET_KEY accepted.
const MinSecretLength = 16

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Admin    AdminConfig
	Upload   UploadConfig
	Throttle ThrottleConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int
	CORSOrigins     []string
	FrontendDir     string
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxy      bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// StorageConfig selects the store. URL schemes: sqlite:// (or a bare path),
// mongodb:// / mongodb+srv://, postgres:// / postgresql://.
type StorageConfig struct {
	URL            string
	Database       string // Mongo database name
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	SecretKey string
	TokenTTL  time.Duration
}

type AdminConfig struct {
	Username string
	Password string
	FullName string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64

	// MinIO is used instead of Dir when Endpoint is set.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

type ThrottleConfig struct {
	RatePerMinute int
	Burst         int
	RedisURL      string // empty → in-process limiter
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8000)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("FRONTEND_DIR", "frontend/build")
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("READ_TIMEOUT", "15s")
	v.SetDefault("WRITE_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("STORAGE_URL", "sqlite://data/medassoc.db")
	v.SetDefault("STORAGE_DATABASE", "medassoc")
	v.SetDefault("STORAGE_CONNECT_TIMEOUT", "10s")

	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)

	v.SetDefault("ADMIN_USERNAME", "admin@medassoc.com")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("ADMIN_FULL_NAME", "System Administrator")

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "medassoc-uploads")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_BURST", 5)
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads envFile (if it exists) and the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("PORT"),
			CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
			FrontendDir:     v.GetString("FRONTEND_DIR"),
			TrustProxy:      v.GetBool("TRUST_PROXY_HEADERS"),
			ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Storage: StorageConfig{
			URL:            v.GetString("STORAGE_URL"),
			Database:       v.GetString("STORAGE_DATABASE"),
			ConnectTimeout: v.GetDuration("STORAGE_CONNECT_TIMEOUT"),
		},
		Auth: AuthConfig{
			SecretKey: v.GetString("SECRET_KEY"),
			TokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
			FullName: v.GetString("ADMIN_FULL_NAME"),
		},
		Upload: UploadConfig{
			Dir:            v.GetString("UPLOAD_DIR"),
			MaxBytes:       v.GetInt64("UPLOAD_MAX_BYTES"),
			MinIOEndpoint:  v.GetString("MINIO_ENDPOINT"),
			MinIOAccessKey: v.GetString("MINIO_ACCESS_KEY"),
			MinIOSecretKey: v.GetString("MINIO_SECRET_KEY"),
			MinIOBucket:    v.GetString("MINIO_BUCKET"),
			MinIOUseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Throttle: ThrottleConfig{
			RatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
			Burst:         v.GetInt("LOGIN_BURST"),
			RedisURL:      v.GetString("REDIS_URL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Server.Port)
	}
	if c.Auth.SecretKey != "" && len(c.Auth.SecretKey) < MinSecretLength {
		return fmt.Errorf("config: SECRET_KEY must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("config: UPLOAD_MAX_BYTES must be positive")
	}
	if c.Throttle.RatePerMinute <= 0 || c.Throttle.Burst <= 0 {
		return errors.New("config: LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: LOG_FORMAT %q: want text or json", c.Log.Format)
	}
	return nil
}

// ParseLevel maps LOG_LEVEL onto an slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the process logger: "text" for humans, "json" for log
// shippers.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch c.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("config: LOG_FORMAT %q: want text or json", c.Format)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
