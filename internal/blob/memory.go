package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"resourcehub/internal/ingest"
)

// MemoryStore is an in-memory implementation of the BlobStore interface,
// useful for testing. It is safe for concurrent use.
type MemoryStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex

	// FailPuts makes every Put fail; tests use it to exercise promotion
	// error paths.
	FailPuts bool
}

var _ ingest.BlobStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores the blob under key. The locator is the key itself.
func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	if m.FailPuts {
		return "", fmt.Errorf("put disabled")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading blob data: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return key, nil
}

// Open returns a reader over the stored blob.
func (m *MemoryStore) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.blobs[locator]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", locator)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob. A missing blob is not an error.
func (m *MemoryStore) Delete(ctx context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, locator)
	return nil
}

// ValidateSetup always succeeds for the in-memory store.
func (m *MemoryStore) ValidateSetup(ctx context.Context) error { return nil }

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Get returns a stored blob's bytes and whether it exists.
func (m *MemoryStore) Get(locator string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[locator]
	return data, ok
}
