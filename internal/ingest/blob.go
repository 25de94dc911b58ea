package ingest

import (
	"context"
	"io"
)

// BlobStore provides durable storage for promoted artifacts.
// All operations stream through io.Reader/io.Writer so large files never
// have to fit in memory.
type BlobStore interface {
	// Put stores the bytes read from r under key and returns a locator
	// that Open and Delete accept. size is the number of bytes that will
	// be read from r; implementations reject short or long reads.
	Put(ctx context.Context, key string, r io.Reader, size int64) (locator string, err error)

	// Open returns a reader over the blob at locator.
	Open(ctx context.Context, locator string) (io.ReadCloser, error)

	// Delete removes the blob at locator. Deleting a missing blob is not
	// an error.
	Delete(ctx context.Context, locator string) error

	// ValidateSetup verifies the store is accessible and writable.
	ValidateSetup(ctx context.Context) error
}
