package chunkstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resourcehub/internal/ingest"
)

func newStore(t *testing.T) *ChunkStore {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestWriteAndOpenChunk(t *testing.T) {
	store := newStore(t)
	if _, err := store.CreateSessionDir("sess-1"); err != nil {
		t.Fatalf("CreateSessionDir failed: %v", err)
	}

	if err := store.WriteChunk("sess-1", 0, strings.NewReader("chunk zero")); err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}

	rc, err := store.OpenChunk("sess-1", 0)
	if err != nil {
		t.Fatalf("OpenChunk failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading chunk: %v", err)
	}
	if string(data) != "chunk zero" {
		t.Errorf("chunk content = %q", data)
	}
}

func TestWriteChunkOverwrites(t *testing.T) {
	store := newStore(t)
	store.CreateSessionDir("sess-1")

	store.WriteChunk("sess-1", 3, strings.NewReader("first"))
	if err := store.WriteChunk("sess-1", 3, strings.NewReader("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	rc, _ := store.OpenChunk("sess-1", 3)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "second" {
		t.Errorf("chunk content = %q, want %q", data, "second")
	}

	present, err := store.PresentChunks("sess-1", 10)
	if err != nil {
		t.Fatalf("PresentChunks failed: %v", err)
	}
	if len(present) != 1 || present[0] != 3 {
		t.Errorf("present = %v, want [3]", present)
	}
}

func TestOpenMissingChunk(t *testing.T) {
	store := newStore(t)
	store.CreateSessionDir("sess-1")

	_, err := store.OpenChunk("sess-1", 5)
	if !errors.Is(err, ingest.ErrMissingChunk) {
		t.Errorf("err = %v, want ErrMissingChunk", err)
	}
}

func TestPresentChunks(t *testing.T) {
	store := newStore(t)
	dir, _ := store.CreateSessionDir("sess-1")

	for _, idx := range []int{4, 0, 2} {
		if err := store.WriteChunk("sess-1", idx, strings.NewReader("x")); err != nil {
			t.Fatalf("WriteChunk(%d) failed: %v", idx, err)
		}
	}

	// Stray files and out-of-range indices must be ignored.
	os.WriteFile(filepath.Join(dir, "assembled.bin"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".chunk-12345"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "chunk_99.part"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "chunk_bad.part"), []byte("x"), 0644)

	present, err := store.PresentChunks("sess-1", 5)
	if err != nil {
		t.Fatalf("PresentChunks failed: %v", err)
	}
	want := []int{0, 2, 4}
	if len(present) != len(want) {
		t.Fatalf("present = %v, want %v", present, want)
	}
	for i := range want {
		if present[i] != want[i] {
			t.Fatalf("present = %v, want %v", present, want)
		}
	}
}

func TestPresentChunksMissingDir(t *testing.T) {
	store := newStore(t)

	present, err := store.PresentChunks("never-created", 5)
	if err != nil {
		t.Fatalf("PresentChunks failed: %v", err)
	}
	if present != nil {
		t.Errorf("present = %v, want nil", present)
	}
}

func TestRemoveSession(t *testing.T) {
	store := newStore(t)
	dir, _ := store.CreateSessionDir("sess-1")
	store.WriteChunk("sess-1", 0, strings.NewReader("x"))

	if err := store.RemoveSession("sess-1"); err != nil {
		t.Fatalf("RemoveSession failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("session directory survived: %v", err)
	}

	// Removing an absent session is fine.
	if err := store.RemoveSession("sess-1"); err != nil {
		t.Fatalf("repeat RemoveSession failed: %v", err)
	}
}

func TestRemoveChunk(t *testing.T) {
	store := newStore(t)
	store.CreateSessionDir("sess-1")
	store.WriteChunk("sess-1", 0, strings.NewReader("x"))
	store.WriteChunk("sess-1", 1, strings.NewReader("y"))

	store.RemoveChunk("sess-1", 0)

	present, _ := store.PresentChunks("sess-1", 2)
	if len(present) != 1 || present[0] != 1 {
		t.Errorf("present = %v, want [1]", present)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	store := newStore(t)
	dir, _ := store.CreateSessionDir("sess-1")

	// A reader that fails mid-copy must not leave a temp file.
	err := store.WriteChunk("sess-1", 0, io.MultiReader(
		strings.NewReader("partial"), failingReader{}))
	if err == nil {
		t.Fatal("WriteChunk succeeded with failing reader")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory not clean after failed write: %v", entries)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
