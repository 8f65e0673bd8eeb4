package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/medassoc/internal/apperror"
	"github.com/sakif/medassoc/internal/metrics"
)

// Uploader is what UploadHandler needs; *upload.Service implements it.
type Uploader interface {
	Save(ctx context.Context, originalName string, body io.Reader) (string, error)
	MaxBytes() int64
}

// multipartOverhead is room for boundaries and part headers on top of the
// file itself.
const multipartOverhead = 64 << 10

// UploadHandler accepts image uploads from the admin UI.
type UploadHandler struct {
	uploads Uploader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewUploadHandler(uploads Uploader, m *metrics.Metrics, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, metrics: m, logger: logger}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HandleUpload stores the "file" part of a multipart form.
//
// HTTP: POST /api/upload (bearer)
// RESPONSE: 200 {"url": "/uploads/<random>.<ext>"}
//
// STREAMING:
// The body is read part by part with MultipartReader, so the file goes
// straight to the blob store without being buffered in memory or spilled to
// a temp file by ParseMultipartForm.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes()+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		h.reject(w, apperror.ValidationFailed("file", "request must be multipart/form-data with a file field"))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			h.reject(w, apperror.ValidationFailed("file", "file is required"))
			return
		}
		if err != nil {
			h.fail(w, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		url, err := h.uploads.Save(r.Context(), part.FileName(), part)
		part.Close()
		if err != nil {
			h.fail(w, err)
			return
		}

		h.metrics.UploadResult("stored")
		writeJSON(w, http.StatusOK, uploadResponse{URL: url})
		return
	}
}

func (h *UploadHandler) reject(w http.ResponseWriter, err error) {
	h.metrics.UploadResult("rejected")
	writeError(w, err)
}

// fail classifies err: client mistakes are rejections, the rest are faults.
func (h *UploadHandler) fail(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		h.reject(w, apperror.ValidationFailed("file", "file is too large"))
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrUnsupportedMedia):
		h.reject(w, err)
	default:
		h.metrics.UploadResult("failed")
		h.logger.Error("upload failed", slog.String("error", err.Error()))
		writeError(w, err)
	}
}
