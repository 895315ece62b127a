package storage

import (
	"context"
	"io"
)

// Storage is the object store the product service writes images to.
// Store returns the relative key of the stored object; URL derives the
// public URL for a key; Remove is the compensating delete used when a
// database transaction fails after the object was already written.
type Storage interface {
	Store(ctx context.Context, r io.Reader, size int64, contentType, folder string) (string, error)
	URL(path string) string
	Remove(ctx context.Context, path string) error
}
