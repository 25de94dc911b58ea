package ingest

import "errors"

// Sentinel errors for the ingestion core. Callers match with errors.Is;
// the concrete message carries the detail.
var (
	// ErrValidation indicates a bad request shape: size over the limit,
	// MIME type outside the allow-list, chunk index out of range, or a
	// totalChunks claim that disagrees with the session.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an unknown session or file ID.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates an operation that is not legal for the
	// session's current status, e.g. writing a chunk after Abort.
	ErrInvalidState = errors.New("invalid session state")

	// ErrIncompleteUpload indicates Complete was called before every chunk
	// was present. The session is left untouched so the client can retry.
	ErrIncompleteUpload = errors.New("upload incomplete")

	// ErrMissingChunk indicates assembly found a chunk file absent after
	// the completeness probe passed. Retriable; the session stays uploading.
	ErrMissingChunk = errors.New("missing chunk")

	// ErrIntegrity indicates the assembled byte count disagrees with the
	// declared session size, or a re-verification checksum mismatch.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrStorage indicates a durable write, read, or delete failure in the
	// blob store or metadata store.
	ErrStorage = errors.New("storage failure")

	// ErrConversionUnavailable indicates no external converter is
	// registered or the conversion failed. It never escapes the page
	// counting cascade; ingestion success does not depend on it.
	ErrConversionUnavailable = errors.New("converter unavailable")
)
