package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("/data/resourcehub")

	if cfg.LogDir != filepath.Join("/data/resourcehub", "log") {
		t.Errorf("LogDir = %s", cfg.LogDir)
	}
	if cfg.TmpDir != filepath.Join("/data/resourcehub", "tmp") {
		t.Errorf("TmpDir = %s", cfg.TmpDir)
	}
	if cfg.Blob.Type != "filesystem" {
		t.Errorf("Blob.Type = %s, want filesystem", cfg.Blob.Type)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %s, want sqlite", cfg.Database.Type)
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %s, want none", cfg.Encryption.Type)
	}
	if cfg.Converter.Binary != "soffice" {
		t.Errorf("Converter.Binary = %s, want soffice", cfg.Converter.Binary)
	}
	if cfg.Upload.RetentionHours != 24 {
		t.Errorf("Upload.RetentionHours = %d, want 24", cfg.Upload.RetentionHours)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	cfg := NewConfig("/data/rh")
	cfg.Upload.MaxUploadBytes = 1 << 20
	cfg.Upload.AllowedMimePrefixes = []string{"application/pdf", "image/"}
	cfg.Blob.Type = "s3"
	cfg.Blob.S3Bucket = "artifacts"
	cfg.Blob.S3Region = "eu-central-1"

	m := &Manager{}
	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Upload.MaxUploadBytes != cfg.Upload.MaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d", got.Upload.MaxUploadBytes)
	}
	if len(got.Upload.AllowedMimePrefixes) != 2 {
		t.Errorf("AllowedMimePrefixes = %v", got.Upload.AllowedMimePrefixes)
	}
	if got.Blob.Type != "s3" || got.Blob.S3Bucket != "artifacts" {
		t.Errorf("Blob = %+v", got.Blob)
	}
}

func TestReadPartialConfig(t *testing.T) {
	input := `
base_dir = "/srv/rh"

[upload]
max_upload_bytes = 1024
`
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.BaseDir != "/srv/rh" {
		t.Errorf("BaseDir = %s", cfg.BaseDir)
	}
	if cfg.Upload.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.Upload.MaxUploadBytes)
	}
	if cfg.Blob.Type != "" {
		t.Errorf("Blob.Type = %s, want empty", cfg.Blob.Type)
	}
}

func TestReadInvalidConfig(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("not [valid toml")); err == nil {
		t.Fatal("Read accepted invalid TOML")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "resourcehub.toml")
	cfg := NewConfig("/data/rh")

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile failed: %v", err)
	}
	if got.BaseDir != "/data/rh" {
		t.Errorf("BaseDir = %s", got.BaseDir)
	}

	// A second Init must refuse to overwrite.
	if err := Init(path, cfg); err == nil {
		t.Fatal("Init overwrote existing config")
	}
}

func TestReadFromFileMissing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("ReadFromFile succeeded on missing file")
	}
}
