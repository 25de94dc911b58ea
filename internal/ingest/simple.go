package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"resourcehub/internal/model"
)

// SimpleUpload is the single-shot path for files small enough to arrive in
// one request. It spools the input to a temp file while computing the
// checksum, then reuses the promotion step; the assembler is skipped.
func (s *Service) SimpleUpload(ctx context.Context, ownerID, filename, mimeType string, r io.Reader) (*model.ResourceFile, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}

	spool, err := os.CreateTemp("", "resourcehub-upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating spool file: %v", ErrStorage, err)
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	hash := sha256.New()
	// Cap the copy one byte past the limit so oversized input is detected
	// without spooling the whole stream.
	size, err := io.Copy(io.MultiWriter(spool, hash), io.LimitReader(r, s.limits.MaxUploadBytes+1))
	if cerr := spool.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: spooling upload: %v", ErrStorage, err)
	}
	if err := s.checkAllowed(mimeType, size); err != nil {
		return nil, err
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	pages := s.countPages(ctx, spoolPath, mimeType, filename)

	rf, err := s.promote(ctx, ownerID, filename, mimeType, spoolPath, size, checksum, pages)
	if err != nil {
		return nil, err
	}

	s.logger.Info("simple upload stored", "file", rf.ID, "size", rf.Size, "sha256", rf.SHA256)
	return rf, nil
}
