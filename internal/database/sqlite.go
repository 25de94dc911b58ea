package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resourcehub/internal/ingest"
	"resourcehub/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the ingest.Store interface using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	clock ingest.Clock
}

var _ ingest.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens a SQLite-backed metadata store.
// path can be a file path or ":memory:" for an in-memory database.
// clock may be nil, in which case wall-clock time is used for updated_at.
func NewSQLiteStore(path string, clock ingest.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = ingest.RealClock{}
	}
	return &SQLiteStore{db: db, path: path, clock: clock}, nil
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the store relies on. Exported for tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own private
	// database, so pin the pool to a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	// Concurrent chunk writers hit the counter update; give the lock a
	// grace period instead of failing fast with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}

// DB exposes the underlying connection for migrations.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Session operations

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.UploadSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upload_sessions
			(id, owner_id, filename, mime_type, size, chunk_size, total_chunks, uploaded_chunks, temp_dir, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.OwnerID, sess.Filename, sess.MimeType, sess.Size, sess.ChunkSize,
		sess.TotalChunks, sess.UploadedChunks, sess.TempDir, sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.UploadSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, filename, mime_type, size, chunk_size, total_chunks, uploaded_chunks, temp_dir, status, created_at, updated_at
		FROM upload_sessions WHERE id = ?`, id)

	var sess model.UploadSession
	err := row.Scan(&sess.ID, &sess.OwnerID, &sess.Filename, &sess.MimeType, &sess.Size, &sess.ChunkSize,
		&sess.TotalChunks, &sess.UploadedChunks, &sess.TempDir, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, id, status string, fromStatuses ...string) (bool, error) {
	query := "UPDATE upload_sessions SET status = ?, updated_at = ? WHERE id = ?"
	args := []any{status, s.clock.Now(), id}
	if len(fromStatuses) > 0 {
		query += " AND status IN (?" + repeatPlaceholder(len(fromStatuses)-1) + ")"
		for _, from := range fromStatuses {
			args = append(args, from)
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating session status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// IncrementUploadedChunks bumps the advisory counter in a single guarded
// UPDATE, so concurrent writers cannot lose updates and writers racing an
// abort observe the lost race via the zero row count.
func (s *SQLiteStore) IncrementUploadedChunks(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE upload_sessions
		SET uploaded_chunks = MIN(uploaded_chunks + 1, total_chunks),
		    status = ?,
		    updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		model.StatusUploading, s.clock.Now(), id, model.StatusInitiated, model.StatusUploading)
	if err != nil {
		return false, fmt.Errorf("incrementing uploaded chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) FindIdleSessions(ctx context.Context, updatedBefore time.Time) ([]*model.UploadSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, filename, mime_type, size, chunk_size, total_chunks, uploaded_chunks, temp_dir, status, created_at, updated_at
		FROM upload_sessions
		WHERE status IN (?, ?) AND updated_at < ?
		ORDER BY updated_at`,
		model.StatusInitiated, model.StatusUploading, updatedBefore)
	if err != nil {
		return nil, fmt.Errorf("querying idle sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.UploadSession
	for rows.Next() {
		var sess model.UploadSession
		if err := rows.Scan(&sess.ID, &sess.OwnerID, &sess.Filename, &sess.MimeType, &sess.Size, &sess.ChunkSize,
			&sess.TotalChunks, &sess.UploadedChunks, &sess.TempDir, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning idle session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating idle sessions: %w", err)
	}
	return sessions, nil
}

// File operations

func (s *SQLiteStore) CreateFile(ctx context.Context, f *model.ResourceFile) error {
	var pages sql.NullInt64
	if f.Pages != nil {
		pages = sql.NullInt64{Int64: int64(*f.Pages), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resource_files
			(id, owner_id, resource_id, storage_path, storage_url, name, size, mime_type, sha256, is_verified, pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, f.ResourceID, f.StoragePath, f.StorageURL, f.Name, f.Size,
		f.MimeType, f.SHA256, f.IsVerified, pages, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetFile(ctx context.Context, id string) (*model.ResourceFile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, resource_id, storage_path, storage_url, name, size, mime_type, sha256, is_verified, pages, created_at
		FROM resource_files WHERE id = ?`, id)

	var f model.ResourceFile
	var pages sql.NullInt64
	err := row.Scan(&f.ID, &f.OwnerID, &f.ResourceID, &f.StoragePath, &f.StorageURL, &f.Name, &f.Size,
		&f.MimeType, &f.SHA256, &f.IsVerified, &pages, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	if pages.Valid {
		p := int(pages.Int64)
		f.Pages = &p
	}
	return &f, nil
}

func (s *SQLiteStore) DeleteFile(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM resource_files WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetFileVerified(ctx context.Context, id string, verified bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE resource_files SET is_verified = ? WHERE id = ?", verified, id)
	if err != nil {
		return fmt.Errorf("updating verification flag: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLiteStore) SetFilePages(ctx context.Context, id string, pages int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE resource_files SET pages = ? WHERE id = ?", pages, id)
	if err != nil {
		return fmt.Errorf("updating page count: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no file with id %s", id)
	}
	return nil
}

// repeatPlaceholder returns n copies of ", ?".
func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
