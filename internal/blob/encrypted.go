package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"resourcehub/internal/encryption"
	"resourcehub/internal/ingest"
)

// EncryptedStore wraps another BlobStore and encrypts artifact bytes on
// the way in. Checksums recorded for a file are always over plaintext;
// only the stored representation changes.
//
// Put needs only the public key. Open requires Unlock to have been called
// with the passphrase first, since the private key is passphrase-protected.
type EncryptedStore struct {
	inner ingest.BlobStore
	enc   encryption.Encryptor

	mu   sync.Mutex
	dctx encryption.DecryptionContext
}

var _ ingest.BlobStore = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner with at-rest encryption.
func NewEncryptedStore(inner ingest.BlobStore, enc encryption.Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc}
}

// Unlock makes Open usable by unlocking the private key.
func (e *EncryptedStore) Unlock(passphrase string) error {
	dctx, err := e.enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking decryption key: %w", err)
	}
	e.mu.Lock()
	e.dctx = dctx
	e.mu.Unlock()
	return nil
}

// Put encrypts the plaintext into a spool file to learn the ciphertext
// size, then stores the ciphertext in the inner store under the same key.
func (e *EncryptedStore) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	spool, err := os.CreateTemp("", "resourcehub-enc-*")
	if err != nil {
		return "", fmt.Errorf("creating encryption spool: %w", err)
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	err = e.enc.Encrypt(io.LimitReader(r, size), spool)
	if cerr := spool.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("encrypting artifact: %w", err)
	}

	info, err := os.Stat(spoolPath)
	if err != nil {
		return "", fmt.Errorf("stating encryption spool: %w", err)
	}

	f, err := os.Open(spoolPath)
	if err != nil {
		return "", fmt.Errorf("reopening encryption spool: %w", err)
	}
	defer f.Close()

	return e.inner.Put(ctx, key, f, info.Size())
}

// Open streams the decrypted plaintext of the blob at locator.
func (e *EncryptedStore) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	e.mu.Lock()
	dctx := e.dctx
	e.mu.Unlock()
	if dctx == nil {
		return nil, fmt.Errorf("encrypted blob store is locked: call Unlock first")
	}

	ciphertext, err := e.inner.Open(ctx, locator)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		defer ciphertext.Close()
		pw.CloseWithError(dctx.Decrypt(ciphertext, pw))
	}()
	return pr, nil
}

// Delete removes the blob from the inner store.
func (e *EncryptedStore) Delete(ctx context.Context, locator string) error {
	return e.inner.Delete(ctx, locator)
}

// ValidateSetup checks the inner store and that key material exists.
func (e *EncryptedStore) ValidateSetup(ctx context.Context) error {
	if !e.enc.IsConfigured() {
		return fmt.Errorf("encryption keys not configured")
	}
	return e.inner.ValidateSetup(ctx)
}
