// Package chunkstore stores the transient chunk files of upload sessions
// on the local filesystem:
//
//	<root>/
//	  <sessionID>/
//	    chunk_0.part
//	    chunk_1.part
//	    ...
//	    assembled.bin   (during Complete)
//
// Chunk writes go through a temp name and rename, so a concurrent
// completeness probe never observes a half-written chunk.
package chunkstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"resourcehub/internal/ingest"
)

// ChunkStore implements ingest.ChunkStore on a local directory tree.
type ChunkStore struct {
	root string
}

var _ ingest.ChunkStore = (*ChunkStore)(nil)

// New creates a chunk store rooted at the given directory, creating it if
// needed.
func New(root string) (*ChunkStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating chunk root: %w", err)
	}
	return &ChunkStore{root: root}, nil
}

// Root returns the root directory of the store.
func (c *ChunkStore) Root() string { return c.root }

func (c *ChunkStore) sessionDir(sessionID string) string {
	return filepath.Join(c.root, sessionID)
}

func (c *ChunkStore) chunkPath(sessionID string, idx int) string {
	return filepath.Join(c.sessionDir(sessionID), fmt.Sprintf("chunk_%d.part", idx))
}

// CreateSessionDir allocates the per-session chunk directory.
func (c *ChunkStore) CreateSessionDir(sessionID string) (string, error) {
	dir := c.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating session directory: %w", err)
	}
	return dir, nil
}

// WriteChunk stores the bytes read from r as chunk idx, replacing any
// prior content at that index. The write lands under a temp name first and
// is renamed into place.
func (c *ChunkStore) WriteChunk(sessionID string, idx int, r io.Reader) error {
	dir := c.sessionDir(sessionID)
	tmp, err := os.CreateTemp(dir, ".chunk-*")
	if err != nil {
		return fmt.Errorf("creating temp chunk: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing chunk data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp chunk: %w", err)
	}

	if err := os.Rename(tmpPath, c.chunkPath(sessionID, idx)); err != nil {
		return fmt.Errorf("renaming chunk into place: %w", err)
	}
	success = true
	return nil
}

// RemoveChunk deletes a single chunk file, best-effort.
func (c *ChunkStore) RemoveChunk(sessionID string, idx int) {
	os.Remove(c.chunkPath(sessionID, idx))
}

// OpenChunk opens chunk idx for reading. A missing chunk reports
// ingest.ErrMissingChunk.
func (c *ChunkStore) OpenChunk(sessionID string, idx int) (io.ReadCloser, error) {
	f, err := os.Open(c.chunkPath(sessionID, idx))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: chunk %d of session %s", ingest.ErrMissingChunk, idx, sessionID)
		}
		return nil, fmt.Errorf("opening chunk %d: %w", idx, err)
	}
	return f, nil
}

// PresentChunks scans the session directory and returns the sorted chunk
// indices in [0, total) that exist on disk. Temp files from in-flight
// writes are invisible here because they carry a non-chunk name until the
// rename.
func (c *ChunkStore) PresentChunks(sessionID string, total int) ([]int, error) {
	entries, err := os.ReadDir(c.sessionDir(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	present := make([]int, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "chunk_") || !strings.HasSuffix(name, ".part") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "chunk_"), ".part"))
		if err != nil || idx < 0 || idx >= total {
			continue
		}
		present = append(present, idx)
	}
	sort.Ints(present)
	return present, nil
}

// RemoveSession deletes the session directory and everything in it.
func (c *ChunkStore) RemoveSession(sessionID string) error {
	return os.RemoveAll(c.sessionDir(sessionID))
}
