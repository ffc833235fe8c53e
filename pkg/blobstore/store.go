package blobstore

import (
	"context"
	"errors"
)

// ErrBlobExists is returned by Put when the named blob is already
// present. Stores never overwrite; callers decide whether that is
// a warning or an error.
var ErrBlobExists = errors.New("blob already exists")

// Store is a flat named-blob container (a directory, or a bucket prefix).
type Store interface {
	// List returns the names of all blobs in the container.
	List(ctx context.Context) ([]string, error)

	// Get returns the full content of the named blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a new blob. Returns ErrBlobExists without writing
	// when a blob of that name is already stored.
	Put(ctx context.Context, name string, data []byte) error
}
