package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for resourcehub.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	TmpDir     string           `toml:"tmp_dir"` // chunk directories for in-flight sessions
	Upload     UploadConfig     `toml:"upload"`
	Blob       BlobConfig       `toml:"blob"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Converter  ConverterConfig  `toml:"converter"`
}

// UploadConfig holds the validation policy and housekeeping settings for
// upload sessions.
type UploadConfig struct {
	// MaxUploadBytes caps declared and assembled file sizes; defaults to
	// 50 MiB when unset.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	// AllowedMimePrefixes is a prefix allow-list for declared MIME types.
	// Empty allows everything.
	AllowedMimePrefixes []string `toml:"allowed_mime_prefixes"`

	// DefaultChunkSize applies when a client initiates without one;
	// defaults to 5 MiB when unset.
	DefaultChunkSize int64 `toml:"default_chunk_size"`

	// RetentionHours is how long an idle session survives before the
	// sweep aborts it; defaults to 24.
	RetentionHours int `toml:"retention_hours"`
}

// BlobConfig represents configuration for the durable blob store.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type BlobConfig struct {
	Type string `toml:"type"` // "filesystem", "s3", or "memory"

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// DatabaseConfig represents configuration for the metadata database.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig holds paths to the age key pair used for optional
// at-rest encryption of promoted artifacts.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age", or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ConverterConfig holds settings for the external document converter used
// by the page counting cascade.
type ConverterConfig struct {
	// Binary is the converter executable; defaults to "soffice". Set to
	// "" and Disabled=true to skip conversion entirely.
	Binary string `toml:"binary"`

	// TimeoutSeconds bounds one conversion subprocess; defaults to 30.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// Disabled turns the conversion fallback off even if the binary is
	// present.
	Disabled bool `toml:"disabled"`
}

// NewConfig creates a Config with the provided base directory and default
// paths derived from it.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		TmpDir:  filepath.Join(baseDir, "tmp"),
		Upload: UploadConfig{
			RetentionHours: 24,
		},
		Blob: BlobConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "blobs"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "resourcehub.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "resourcehub.key"),
		},
		Converter: ConverterConfig{
			Binary: "soffice",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
