// Package storage provides blob storage for uploaded media, keyed by
// generated paths.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the blob does not exist.
var ErrNotFound = errors.New("blob not found")

// Store persists blobs under opaque keys. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes the blob under key, replacing any existing blob. On any
	// failure no partial blob is left behind.
	Save(ctx context.Context, key string, r io.Reader) error
	// Remove deletes the blob under key. Removing a missing blob returns
	// ErrNotFound.
	Remove(ctx context.Context, key string) error
}
