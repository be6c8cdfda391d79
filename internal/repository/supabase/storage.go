package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.ObjectStorage = (*Storage)(nil)

// Storage is the /storage/v1 API.
type Storage struct{ c *Client }

func (c *Client) Storage() *Storage { return &Storage{c: c} }

func objectPath(bucket, path string) (string, error) {
	if bucket == "" || path == "" {
		return "", apperror.ValidationFailed("path", "bucket and path are required")
	}
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segs, "/"), nil
}

// Upload stores data at bucket/path. It does not overwrite.
func (s *Storage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	p, err := objectPath(bucket, path)
	if err != nil {
		return err
	}
	if data == nil {
		return errors.New("supabase: upload has no data")
	}
	return s.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + p,
		header: http.Header{
			"Content-Type":  {contentType},
			"Cache-Control": {"max-age=3600"},
			"X-Upsert":      {"false"},
		},
		raw:    data,
		asUser: true,
	}, nil)
}

// PublicURL is computed locally; it assumes the bucket is public.
func (s *Storage) PublicURL(bucket, path string) (string, error) {
	p, err := objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	return s.c.endpoint("/storage/v1/object/public/"+p, nil), nil
}
