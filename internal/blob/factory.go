package blob

import (
	"context"
	"fmt"

	"resourcehub/internal/config"
	"resourcehub/internal/encryption"
	"resourcehub/internal/ingest"
)

// NewStoreFromConfig creates a BlobStore based on the blob config type,
// wrapping it with at-rest encryption when an encryptor is provided.
func NewStoreFromConfig(ctx context.Context, cfg config.BlobConfig, enc encryption.Encryptor) (ingest.BlobStore, error) {
	var (
		store ingest.BlobStore
		err   error
	)
	switch cfg.Type {
	case "memory":
		store = NewMemoryStore()
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		store, err = NewFileSystemStore(cfg.FSRoot)
	case "s3":
		store, err = NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if enc != nil {
		return NewEncryptedStore(store, enc), nil
	}
	return store, nil
}
