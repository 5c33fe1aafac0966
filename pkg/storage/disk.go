// Package storage is the file store behind nearcart's archived order
// receipts. Two drivers are available:
//   - "local": a directory on the local filesystem (default)
//   - "s3": S3-compatible object storage (AWS S3, MinIO, R2)
//
//	storage.Connect(ctx)
//	storage.Default().Put(ctx, "receipts/abc/1.json", body, "application/json")
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a path that does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, replacing any existing file.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// Files lists every file below prefix, recursively, as slash paths.
	Files(ctx context.Context, prefix string) ([]string, error)

	// URL returns the public URL for path.
	URL(path string) string
}
