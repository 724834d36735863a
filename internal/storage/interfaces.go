// Package storage provides the blob store abstraction behind the stream
// server: one interface, three backends (local disk, S3, Azure). The backend
// is selected once at startup and never mixed per-request.
package storage

import (
	"context"
	"io"
)

// BlobStore is the contract every backend implements. Keys are opaque object
// names assigned at upload time (e.g. "<songID>.enc"); byte offsets address
// the stored object as-is, envelope included when the object is encrypted.
type BlobStore interface {
	// Put stores a complete object under key, replacing any prior object.
	// size is advisory for backends that want it up front; -1 means unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Open returns a reader over the whole object plus its total size.
	// Returns ErrObjectNotFound if the backing object is missing.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// OpenRange returns a reader restricted to the inclusive byte window
	// [start, end] of the stored object. The backend performs the restriction
	// natively (file descriptor range read, or ranged fetch) so only the
	// requested window crosses the wire.
	OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)

	// Stat returns the total size of the stored object.
	Stat(ctx context.Context, key string) (int64, error)

	// Delete removes the backing object. Deleting a missing object returns
	// ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
}
