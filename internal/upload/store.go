package upload

import (
	"context"
	"log/slog"

	"github.com/sakif/medassoc/internal/config"
)

// OpenStore picks MinIO when an endpoint is configured, the local upload
// directory otherwise.
func OpenStore(ctx context.Context, cfg config.UploadConfig, logger *slog.Logger) (BlobStore, error) {
	if cfg.MinIOEndpoint == "" {
		store, err := NewLocalStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("uploads stored on disk", slog.String("dir", cfg.Dir))
		return store, nil
	}

	store, err := NewMinIOStore(ctx, MinIOOptions{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("uploads stored in minio",
		slog.String("endpoint", cfg.MinIOEndpoint),
		slog.String("bucket", cfg.MinIOBucket),
	)
	return store, nil
}
