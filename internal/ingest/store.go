package ingest

import (
	"context"
	"time"

	"resourcehub/internal/model"
)

// Store provides metadata persistence for upload sessions and resource
// files. Implementations must make IncrementUploadedChunks atomic so that
// concurrent chunk writers cannot lose updates.
type Store interface {
	// Session operations

	// CreateSession persists a new upload session.
	CreateSession(ctx context.Context, s *model.UploadSession) error

	// GetSession returns a session by ID, or nil if it does not exist.
	GetSession(ctx context.Context, id string) (*model.UploadSession, error)

	// UpdateSessionStatus transitions a session's status. When fromStatuses
	// is non-empty the update only applies if the current status is one of
	// them; it returns false if no row changed.
	UpdateSessionStatus(ctx context.Context, id, status string, fromStatuses ...string) (bool, error)

	// IncrementUploadedChunks atomically bumps the advisory counter,
	// clamped to the session's total_chunks, and moves an initiated
	// session to uploading. The update only applies while the session is
	// initiated or uploading; it returns false otherwise. The counter is a
	// progress hint only; completeness is always decided by probing chunk
	// files, never by this value.
	IncrementUploadedChunks(ctx context.Context, id string) (bool, error)

	// FindIdleSessions returns non-terminal sessions not updated since the
	// cutoff. Used by the housekeeping sweep.
	FindIdleSessions(ctx context.Context, updatedBefore time.Time) ([]*model.UploadSession, error)

	// File operations

	// CreateFile persists a resource file record. The record is written
	// whole or not at all.
	CreateFile(ctx context.Context, f *model.ResourceFile) error

	// GetFile returns a resource file by ID, or nil if it does not exist.
	GetFile(ctx context.Context, id string) (*model.ResourceFile, error)

	// DeleteFile removes a resource file record. Used to undo a promotion
	// that lost a race with Abort; deleting a missing record is not an
	// error.
	DeleteFile(ctx context.Context, id string) error

	// SetFileVerified records the outcome of a post-hoc checksum
	// re-verification.
	SetFileVerified(ctx context.Context, id string, verified bool) error

	// SetFilePages records a page count discovered after promotion.
	SetFilePages(ctx context.Context, id string, pages int) error

	// Close closes the underlying store.
	Close() error
}
