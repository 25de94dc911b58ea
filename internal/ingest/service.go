package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"resourcehub/internal/model"
)

// DefaultChunkSize is used when Initiate is called without an explicit
// chunk size (5 MiB).
const DefaultChunkSize int64 = 5 * 1024 * 1024

// DefaultMaxUploadBytes is the default per-file size ceiling (50 MiB).
const DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

// Limits holds the validation policy applied when uploads are initiated.
type Limits struct {
	// MaxUploadBytes caps the declared (and assembled) file size.
	MaxUploadBytes int64

	// AllowedMimePrefixes is a prefix allow-list for declared MIME types.
	// Empty means any declared type is accepted. A missing MIME type is
	// always accepted; validation only applies when the client declares one.
	AllowedMimePrefixes []string
}

// Service is the orchestration layer for the ingestion core. It owns the
// upload session state machine and coordinates the chunk store, metadata
// store, blob store, and page counter.
type Service struct {
	store   Store
	chunks  ChunkStore
	blobs   BlobStore
	counter PageCounter // may be nil; page counts are best-effort
	limits  Limits
	logger  Logger
	clock   Clock
	idgen   IDGenerator
}

// NewService creates a Service with the provided dependencies.
// counter may be nil, in which case promoted files carry no page count.
func NewService(store Store, chunks ChunkStore, blobs BlobStore, counter PageCounter, limits Limits, logger Logger, clock Clock, idgen IDGenerator) *Service {
	if limits.MaxUploadBytes <= 0 {
		limits.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{
		store:   store,
		chunks:  chunks,
		blobs:   blobs,
		counter: counter,
		limits:  limits,
		logger:  logger,
		clock:   clock,
		idgen:   idgen,
	}
}

// Initiate validates the declared upload and creates a new session in the
// initiated state with a fresh chunk directory.
func (s *Service) Initiate(ctx context.Context, ownerID, filename, mimeType string, size, chunkSize int64) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if err := s.checkAllowed(mimeType, size); err != nil {
		return "", err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	totalChunks := int((size + chunkSize - 1) / chunkSize)
	if totalChunks < 1 {
		totalChunks = 1
	}

	id := s.idgen.New()
	tempDir, err := s.chunks.CreateSessionDir(id)
	if err != nil {
		return "", fmt.Errorf("%w: creating session directory: %v", ErrStorage, err)
	}

	now := s.clock.Now()
	session := &model.UploadSession{
		ID:          id,
		OwnerID:     ownerID,
		Filename:    filename,
		MimeType:    mimeType,
		Size:        size,
		ChunkSize:   chunkSize,
		TotalChunks: totalChunks,
		TempDir:     tempDir,
		Status:      model.StatusInitiated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		s.chunks.RemoveSession(id)
		return "", fmt.Errorf("%w: creating session: %v", ErrStorage, err)
	}

	s.logger.Info("upload session initiated", "session", id, "owner", ownerID, "size", size, "total_chunks", totalChunks)
	return id, nil
}

// WriteChunk stores one chunk of a session. Re-submitting an index
// replaces the prior content, so client retries are idempotent. The first
// successful write moves an initiated session to uploading.
func (s *Service) WriteChunk(ctx context.Context, sessionID string, index, totalChunks int, r io.Reader) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if session == nil {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Terminal() {
		return fmt.Errorf("%w: session is %s", ErrInvalidState, session.Status)
	}
	if totalChunks != session.TotalChunks {
		return fmt.Errorf("%w: totalChunks mismatch: got %d, session has %d", ErrValidation, totalChunks, session.TotalChunks)
	}
	if index < 0 || index >= session.TotalChunks {
		return fmt.Errorf("%w: chunk index %d out of range [0, %d)", ErrValidation, index, session.TotalChunks)
	}

	if err := s.chunks.WriteChunk(sessionID, index, r); err != nil {
		return fmt.Errorf("%w: writing chunk %d: %v", ErrStorage, index, err)
	}

	// The increment is guarded on status, so a writer racing an Abort
	// observes the lost race here rather than silently succeeding.
	ok, err := s.store.IncrementUploadedChunks(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: recording chunk progress: %v", ErrStorage, err)
	}
	if !ok {
		s.chunks.RemoveChunk(sessionID, index)
		return fmt.Errorf("%w: session no longer accepts writes", ErrInvalidState)
	}

	s.logger.Debug("chunk written", "session", sessionID, "index", index)
	return nil
}

// Abort transitions a session to aborted from any non-terminal state and
// removes its chunk directory. Aborting an already-aborted session is a
// no-op; aborting a completed session fails.
func (s *Service) Abort(ctx context.Context, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if session == nil {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Status == model.StatusAborted {
		return nil
	}
	if session.Status == model.StatusCompleted {
		return fmt.Errorf("%w: session already completed", ErrInvalidState)
	}

	// Flip the status first so racing writers fail their guarded counter
	// update, then clean the directory best-effort.
	ok, err := s.store.UpdateSessionStatus(ctx, sessionID, model.StatusAborted, model.StatusInitiated, model.StatusUploading)
	if err != nil {
		return fmt.Errorf("%w: aborting session: %v", ErrStorage, err)
	}
	if !ok {
		// Lost a race with Complete.
		return fmt.Errorf("%w: session already completed", ErrInvalidState)
	}

	if err := s.chunks.RemoveSession(sessionID); err != nil {
		s.logger.Warn("abort cleanup incomplete", "session", sessionID, "error", err)
	}

	s.logger.Info("upload session aborted", "session", sessionID)
	return nil
}

// checkAllowed applies the size ceiling and MIME prefix allow-list.
func (s *Service) checkAllowed(mimeType string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive", ErrValidation)
	}
	if size > s.limits.MaxUploadBytes {
		return fmt.Errorf("%w: file too large: %d bytes (limit %d)", ErrValidation, size, s.limits.MaxUploadBytes)
	}
	if mimeType == "" || len(s.limits.AllowedMimePrefixes) == 0 {
		return nil
	}
	for _, prefix := range s.limits.AllowedMimePrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%w: MIME type not allowed: %s", ErrValidation, mimeType)
}

// safeFilename strips path separators and replaces characters outside a
// conservative set, so declared names are usable as storage key segments.
func safeFilename(name string) string {
	base := name
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
