package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resourcehub/internal/model"
)

// Complete assembles a session's chunks into the final artifact, verifies
// its size, promotes it to the blob store, and records the resource file.
// Completeness is decided by probing every expected chunk file on disk;
// the uploaded_chunks counter is never trusted. On retriable failures
// (missing chunks, size mismatch, storage errors) the session stays in its
// current state so the client can fix and retry without re-uploading.
func (s *Service) Complete(ctx context.Context, sessionID string) (*model.ResourceFile, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading session: %v", ErrStorage, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, session.Status)
	}

	present, err := s.chunks.PresentChunks(sessionID, session.TotalChunks)
	if err != nil {
		return nil, fmt.Errorf("%w: probing chunks: %v", ErrStorage, err)
	}
	if len(present) != session.TotalChunks {
		missing := missingIndices(present, session.TotalChunks)
		return nil, fmt.Errorf("%w: %d of %d chunks present, missing %v", ErrIncompleteUpload, len(present), session.TotalChunks, missing)
	}

	assembledPath := filepath.Join(session.TempDir, "assembled.bin")
	checksum, err := s.assemble(ctx, session, assembledPath)
	if err != nil {
		os.Remove(assembledPath)
		return nil, err
	}

	// Best-effort page counting from the local assembled file, before the
	// temp directory goes away. Never a reason to fail the upload.
	pages := s.countPages(ctx, assembledPath, session.MimeType, session.Filename)

	rf, err := s.promote(ctx, session.OwnerID, session.Filename, session.MimeType, assembledPath, session.Size, checksum, pages)
	if err != nil {
		os.Remove(assembledPath)
		return nil, err
	}

	// Terminal transition, guarded: if an Abort won the race the artifact
	// must not surface, so undo the promotion.
	ok, err := s.store.UpdateSessionStatus(ctx, sessionID, model.StatusCompleted, model.StatusInitiated, model.StatusUploading)
	if err == nil && !ok {
		err = fmt.Errorf("%w: session was aborted during completion", ErrInvalidState)
	}
	if err != nil {
		s.blobs.Delete(ctx, rf.StoragePath)
		s.store.DeleteFile(ctx, rf.ID)
		if errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: completing session: %v", ErrStorage, err)
	}

	if err := s.chunks.RemoveSession(sessionID); err != nil {
		s.logger.Warn("session cleanup incomplete", "session", sessionID, "error", err)
	}

	s.logger.Info("upload completed", "session", sessionID, "file", rf.ID, "size", rf.Size, "sha256", rf.SHA256)
	return rf, nil
}

// assemble concatenates the session's chunks in strict index order into
// outPath while feeding the same bytes through a streaming SHA-256.
// Memory stays bounded by the copy buffer regardless of artifact size.
// Returns the hex checksum of the full stream.
func (s *Service) assemble(ctx context.Context, session *model.UploadSession, outPath string) (string, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating assembly output: %v", ErrStorage, err)
	}
	defer out.Close()

	hash := sha256.New()
	sink := io.MultiWriter(out, hash)

	var written int64
	for idx := 0; idx < session.TotalChunks; idx++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: assembly canceled: %v", ErrStorage, err)
		}
		chunk, err := s.chunks.OpenChunk(session.ID, idx)
		if err != nil {
			if errors.Is(err, ErrMissingChunk) {
				return "", fmt.Errorf("%w: chunk %d disappeared during assembly", ErrMissingChunk, idx)
			}
			return "", fmt.Errorf("%w: opening chunk %d: %v", ErrStorage, idx, err)
		}
		n, err := io.Copy(sink, chunk)
		chunk.Close()
		if err != nil {
			return "", fmt.Errorf("%w: copying chunk %d: %v", ErrStorage, idx, err)
		}
		written += n
	}

	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("%w: syncing assembly output: %v", ErrStorage, err)
	}
	if written != session.Size {
		return "", fmt.Errorf("%w: assembled %d bytes, declared %d", ErrIntegrity, written, session.Size)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// promote moves an assembled artifact into the blob store and writes the
// resource file record. If the record write fails the orphaned blob is
// deleted before the error surfaces: either a complete record exists or
// nothing does.
func (s *Service) promote(ctx context.Context, ownerID, filename, mimeType, path string, size int64, checksum string, pages *int) (*model.ResourceFile, error) {
	fileID := s.idgen.New()
	key := fmt.Sprintf("%s/%s/%s", ownerID, fileID, safeFilename(filename))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening assembled file: %v", ErrStorage, err)
	}
	locator, err := s.blobs.Put(ctx, key, f, size)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: storing artifact: %v", ErrStorage, err)
	}

	rf := &model.ResourceFile{
		ID:          fileID,
		OwnerID:     ownerID,
		StoragePath: locator,
		Name:        filename,
		Size:        size,
		MimeType:    mimeType,
		SHA256:      checksum,
		Pages:       pages,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateFile(ctx, rf); err != nil {
		if delErr := s.blobs.Delete(ctx, locator); delErr != nil {
			s.logger.Error("orphan blob cleanup failed", "locator", locator, "error", delErr)
		}
		return nil, fmt.Errorf("%w: recording file: %v", ErrStorage, err)
	}

	return rf, nil
}

// countPages runs the cascade and absorbs every failure.
func (s *Service) countPages(ctx context.Context, path, mimeType, filename string) *int {
	if s.counter == nil {
		return nil
	}
	pages := s.counter.Count(ctx, path, mimeType, filename)
	if pages == nil {
		s.logger.Debug("page count unknown", "file", filename)
	}
	return pages
}

// missingIndices returns the indices in [0, total) absent from present,
// which must be sorted ascending.
func missingIndices(present []int, total int) []int {
	missing := make([]int, 0, total-len(present))
	j := 0
	for i := 0; i < total; i++ {
		if j < len(present) && present[j] == i {
			j++
			continue
		}
		missing = append(missing, i)
	}
	return missing
}
