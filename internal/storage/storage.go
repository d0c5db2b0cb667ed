// Package storage contains the blob store abstraction behind the document
// pipeline. The default backend is a local directory; an S3-compatible
// backend (MinIO) is available for deployments without durable local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound reports that no blob exists under the requested key.
var ErrNotFound = errors.New("object not found")

// PutOptions define optional parameters for storing blobs.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store used by the document pipeline. Methods use
// context and streaming readers; implementations must be safe for
// concurrent use.
type Storage interface {
	// Put stores a blob under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get retrieves a blob's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns blob info without reading content; ErrNotFound if absent.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes a blob by key; ErrNotFound if it was already gone.
	Delete(ctx context.Context, key string) error
}
