package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/reclaim/internal/apperror"
	"github.com/sakif/reclaim/internal/repository"
)

var _ repository.ObjectStorage = (*ObjectDB)(nil)

// ObjectDB stores bucket objects as blobs. Public URLs point at the emulator's
// public object route under baseURL.
type ObjectDB struct {
	db      *DB
	baseURL string
}

// Objects returns the object store. baseURL is where the emulator is
// reachable, e.g. "http://localhost:54321".
func (db *DB) Objects(baseURL string) *ObjectDB {
	return &ObjectDB{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload stores data at bucket/path. An existing object at the same path is
// a conflict.
func (o *ObjectDB) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := validObjectPath(bucket, path); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := o.db.conn.ExecContext(ctx,
		`INSERT INTO objects (bucket, path, content_type, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		bucket, path, contentType, data, time.Now().UTC(),
	)
	if err != nil {
		return translate("uploading object", err)
	}
	return nil
}

// PublicURL builds the URL an object is served from. It does not check that
// the object exists.
func (o *ObjectDB) PublicURL(bucket, path string) (string, error) {
	if err := validObjectPath(bucket, path); err != nil {
		return "", err
	}
	return o.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(path), nil
}

// Get returns an object's bytes and content type.
func (o *ObjectDB) Get(ctx context.Context, bucket, path string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := o.db.conn.QueryRowContext(ctx,
		`SELECT data, content_type FROM objects WHERE bucket = ? AND path = ?`,
		bucket, path,
	).Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", apperror.NotFound("object", bucket+"/"+path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("sqlite: reading object %s/%s: %w", bucket, path, err)
	}
	return data, contentType, nil
}

// List returns the object paths under prefix in a bucket.
func (o *ObjectDB) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	rows, err := o.db.conn.QueryContext(ctx,
		`SELECT path FROM objects WHERE bucket = ? AND substr(path, 1, length(?)) = ? ORDER BY path`,
		bucket, prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing objects: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("sqlite: scanning object path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func validObjectPath(bucket, path string) error {
	if bucket == "" || strings.Contains(bucket, "/") {
		return apperror.ValidationFailed("bucket", "invalid bucket name")
	}
	if path == "" || strings.HasPrefix(path, "/") {
		return apperror.ValidationFailed("path", "invalid object path")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return apperror.ValidationFailed("path", "invalid object path")
		}
	}
	return nil
}

func escapePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
