package ingest

import "io"

// ChunkStore holds the transient, index-addressed chunk files of upload
// sessions. Chunks for one session never outlive the session: they are
// deleted on Complete and on Abort.
type ChunkStore interface {
	// CreateSessionDir allocates a fresh directory for a session's chunks
	// and returns its path.
	CreateSessionDir(sessionID string) (string, error)

	// WriteChunk stores the bytes read from r as chunk index idx,
	// replacing any prior content at that index. Writes are atomic: a
	// concurrent presence probe never observes a half-written chunk.
	WriteChunk(sessionID string, idx int, r io.Reader) error

	// RemoveChunk deletes a single chunk file, best-effort.
	RemoveChunk(sessionID string, idx int)

	// OpenChunk opens chunk idx for reading. A missing chunk returns an
	// error satisfying errors.Is(err, ErrMissingChunk).
	OpenChunk(sessionID string, idx int) (io.ReadCloser, error)

	// PresentChunks returns the sorted indices in [0, total) whose chunk
	// files exist on disk right now. This probe, not the session counter,
	// decides whether assembly may start.
	PresentChunks(sessionID string, total int) ([]int, error)

	// RemoveSession deletes the session directory and everything in it,
	// best-effort. Safe to call on a session that was never written.
	RemoveSession(sessionID string) error
}
