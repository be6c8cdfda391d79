package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/reclaim/internal/apperror"
)

// MaxObjectBytes caps an upload body.
const MaxObjectBytes = 10 << 20

// ObjectStore is the bucket storage behind the storage routes.
// *sqlite.ObjectDB implements it.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, path string) ([]byte, string, error)
}

// StorageHandler serves /storage/v1:
//
//	POST /object/{bucket}/*         upload (bearer required)
//	GET  /object/public/{bucket}/*  download (no auth)
type StorageHandler struct {
	objects ObjectStore
	logger  *slog.Logger
}

func NewStorageHandler(objects ObjectStore, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{objects: objects, logger: logger}
}

// UploadResponse is the upload body.
type UploadResponse struct {
	Key string `json:"Key"`
}

func (h *StorageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	path := chi.URLParam(r, "*")

	r.Body = http.MaxBytesReader(w, r.Body, MaxObjectBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeStorageError(w, h.logger, apperror.ValidationFailed("body", "The object exceeded the maximum allowed size"))
		return
	}
	if len(data) == 0 {
		writeStorageError(w, h.logger, apperror.ValidationFailed("body", "Empty upload"))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		contentType = http.DetectContentType(data)
	}

	if err := h.objects.Upload(r.Context(), bucket, path, data, contentType); err != nil {
		if statusFor(err) == http.StatusConflict {
			err = apperror.Wrap(apperror.ErrConflict, "The resource already exists")
		}
		writeStorageError(w, h.logger, err)
		return
	}

	h.logger.Info("object uploaded",
		slog.String("bucket", bucket),
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	writeJSON(w, http.StatusOK, UploadResponse{Key: bucket + "/" + path})
}

func (h *StorageHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	path := chi.URLParam(r, "*")

	data, contentType, err := h.objects.Get(r.Context(), bucket, path)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			err = apperror.Wrap(apperror.ErrNotFound, "Object not found")
		}
		writeStorageError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
