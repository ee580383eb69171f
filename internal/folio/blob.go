package folio

import (
	"context"
	"errors"
	"io"
)

// ErrBlobMissing is returned by BlobStore.Get when no blob exists for a key.
var ErrBlobMissing = errors.New("blob missing")

// BlobStore is the private file store holding image and artifact content.
// All operations stream through io.Reader/io.Writer.
type BlobStore interface {
	// Put stores content under key, replacing any existing blob.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the blob stored under key to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ValidateSetup verifies that the store is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
