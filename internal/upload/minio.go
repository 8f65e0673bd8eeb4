package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOOptions locates an S3-compatible bucket.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStore keeps uploads as objects in one bucket.
// An object is only listed once PutObject completes, which gives the same
// write-then-publish guarantee as LocalStore's rename.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinIOStore connects and makes sure the bucket exists.
func NewMinIOStore(ctx context.Context, opts MinIOOptions, logger *slog.Logger) (*MinIOStore, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("upload: minio endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("upload: checking bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			// Another instance may have created it in between.
			if ok, xerr := client.BucketExists(ctx, opts.Bucket); xerr != nil || !ok {
				return nil, fmt.Errorf("upload: creating bucket %s: %w", opts.Bucket, err)
			}
		}
	}

	return &MinIOStore{client: client, bucket: opts.Bucket, logger: logger}, nil
}

func (s *MinIOStore) Put(ctx context.Context, name string, body io.Reader, contentType string) error {
	if !validName(name) {
		return fmt.Errorf("upload: invalid name %q", name)
	}
	// Size -1 streams the body as a multipart upload; a read error aborts it.
	_, err := s.client.PutObject(ctx, s.bucket, name, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Handler streams objects from the bucket with range and conditional
// request support.
func (s *MinIOStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if !validName(name) {
			http.NotFound(w, r)
			return
		}

		obj, err := s.client.GetObject(r.Context(), s.bucket, name, minio.GetObjectOptions{})
		if err != nil {
			s.serveError(w, r, name, err)
			return
		}
		defer obj.Close()

		info, err := obj.Stat()
		if err != nil {
			s.serveError(w, r, name, err)
			return
		}
		if info.ContentType != "" {
			w.Header().Set("Content-Type", info.ContentType)
		}
		http.ServeContent(w, r, name, info.LastModified, obj)
	})
}

func (s *MinIOStore) serveError(w http.ResponseWriter, r *http.Request, name string, err error) {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		http.NotFound(w, r)
		return
	}
	s.logger.Error("reading upload",
		slog.String("name", name),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}

var _ BlobStore = (*MinIOStore)(nil)
