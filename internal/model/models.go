package model

import "time"

// Upload session status values. Completed and Aborted are terminal.
const (
	StatusInitiated = "initiated"
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// UploadSession represents a chunked upload in progress for one logical file.
// Chunks live on disk under TempDir until the session is completed or aborted;
// the session record holds only metadata and progress.
type UploadSession struct {
	ID             string // UUID
	OwnerID        string
	Filename       string // Declared by the client, sanitized at promotion
	MimeType       string // Declared MIME type, may be empty
	Size           int64  // Declared total byte size
	ChunkSize      int64
	TotalChunks    int
	UploadedChunks int    // Advisory progress counter, never authoritative
	TempDir        string // Per-session chunk directory
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal reports whether the session can no longer accept writes.
func (s *UploadSession) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusAborted
}

// ResourceFile is the durable artifact record created when an upload is
// promoted. Exactly one of StoragePath and StorageURL is set after
// promotion: StoragePath for blobs the configured blob store addresses by
// key, StorageURL for files that live in external storage.
type ResourceFile struct {
	ID          string // UUID
	OwnerID     string
	ResourceID  string // Optional parent logical resource, opaque to ingestion
	StoragePath string
	StorageURL  string
	Name        string
	Size        int64
	MimeType    string
	SHA256      string // Hex-encoded checksum over the full byte stream
	IsVerified  bool   // Set when a re-read of the blob matches SHA256
	Pages       *int   // Best-effort page/slide count, nil when unknown
	CreatedAt   time.Time
}
