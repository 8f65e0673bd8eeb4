// Package upload accepts image files from the admin UI and stores them under
// fresh random names.
//
// THE PIPELINE:
//
//	original name → extension allow-list → <uuid><ext>
//	body          → size cap             → BlobStore.Put (write, then publish)
//
// The client-supplied filename is used only to pick the extension; nothing
// else from it reaches the store, so there is no path to traverse and no
// name to collide with.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/medassoc/internal/apperror"
)

// URLPrefix is where stored files are served from.
const URLPrefix = "/uploads/"

// allowed maps each accepted extension to the content type it is stored with.
var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// BlobStore is where accepted files end up.
//
// Put must not make name readable until the whole body has been written: a
// failed or aborted Put leaves nothing behind under name. Handler serves
// stored files by name, relative to the mount point.
type BlobStore interface {
	Put(ctx context.Context, name string, body io.Reader, contentType string) error
	Handler() http.Handler
}

var errTooLarge = errors.New("upload: file too large")

type Service struct {
	store    BlobStore
	maxBytes int64
	logger   *slog.Logger
}

func NewService(store BlobStore, maxBytes int64, logger *slog.Logger) *Service {
	return &Service{store: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the largest accepted file.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Handler serves stored files. Mount it under URLPrefix with the prefix stripped.
func (s *Service) Handler() http.Handler { return s.store.Handler() }

// Save validates and stores one file and returns its public URL.
//
// Errors:
//   - apperror.ErrUnsupportedMedia when the extension is not an image type
//   - apperror.ErrValidation when the body exceeds MaxBytes
//   - anything else is a storage fault
func (s *Service) Save(ctx context.Context, originalName string, body io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	contentType, ok := allowed[ext]
	if !ok {
		return "", apperror.UnsupportedMedia(ext)
	}

	name := uuid.NewString() + ext
	capped := &cappedReader{r: body, max: s.maxBytes}

	if err := s.store.Put(ctx, name, capped, contentType); err != nil {
		if errors.Is(err, errTooLarge) {
			return "", apperror.ValidationFailed("file",
				fmt.Sprintf("file must be %d bytes or smaller", s.maxBytes))
		}
		return "", fmt.Errorf("upload: storing %s: %w", name, err)
	}

	s.logger.Info("file uploaded",
		slog.String("name", name),
		slog.Int64("bytes", capped.n),
	)
	return URLPrefix + name, nil
}

// cappedReader fails with errTooLarge as soon as more than max bytes have
// been read, so an oversized body aborts the Put instead of being stored.
type cappedReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, errTooLarge
	}
	return n, err
}

// validName reports whether name is something Save could have produced:
// a single path element that is not hidden.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	_, ok := allowed[strings.ToLower(filepath.Ext(name))]
	return ok
}
