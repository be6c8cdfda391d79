package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reclaim/internal/repository/sqlite"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStorageRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewStorageHandler(db.Objects(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Get("/storage/v1/object/public/{bucket}/*", h.HandlePublic)
	r.Post("/storage/v1/object/{bucket}/*", h.HandleUpload)
	return r
}

func upload(t *testing.T, router http.Handler, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestStorage_UploadThenFetch(t *testing.T) {
	router := newStorageRouter(t)

	rr := upload(t, router, "/storage/v1/object/item-photos/room-1/a.png", pngHeader, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "item-photos/room-1/a.png", resp.Key)

	req := httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/item-photos/room-1/a.png", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rr.Body.Bytes())
}

func TestStorage_DuplicateIsConflict(t *testing.T) {
	router := newStorageRouter(t)

	rr := upload(t, router, "/storage/v1/object/item-photos/room-1/a.jpg", []byte("jpeg"), "image/jpeg")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = upload(t, router, "/storage/v1/object/item-photos/room-1/a.jpg", []byte("jpeg"), "image/jpeg")
	assert.Equal(t, http.StatusConflict, rr.Code)
	var e StorageError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	assert.Equal(t, "409", e.StatusCode)
	assert.Equal(t, "Duplicate", e.Error)
}

func TestStorage_EmptyUpload(t *testing.T) {
	router := newStorageRouter(t)
	rr := upload(t, router, "/storage/v1/object/item-photos/room-1/a.jpg", nil, "image/jpeg")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStorage_MissingObject(t *testing.T) {
	router := newStorageRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/storage/v1/object/public/item-photos/nope.jpg", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
