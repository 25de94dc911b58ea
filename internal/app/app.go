package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"resourcehub/internal/blob"
	"resourcehub/internal/chunkstore"
	"resourcehub/internal/config"
	"resourcehub/internal/convert"
	"resourcehub/internal/database"
	"resourcehub/internal/encryption"
	"resourcehub/internal/ingest"
	"resourcehub/internal/pagecount"
)

// App is the application layer between the CLI and the ingest service.
// It constructs all dependencies from config and manages their lifecycle
// on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	chunks  *chunkstore.ChunkStore
	blobs   ingest.BlobStore
	enc     encryption.Encryptor
	service *ingest.Service
	logFile *os.File
}

// New creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Upload", "Sweep") and tags
// every log line of the invocation. The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	opID := fmt.Sprintf("%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"))
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	fail := func(err error) (*App, error) {
		logFile.Close()
		return nil, err
	}

	store, err := database.NewStoreFromConfig(cfg.Database, ingest.RealClock{})
	if err != nil {
		return fail(fmt.Errorf("creating metadata store: %w", err))
	}

	chunks, err := chunkstore.New(cfg.TmpDir)
	if err != nil {
		store.Close()
		return fail(fmt.Errorf("creating chunk store: %w", err))
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return fail(fmt.Errorf("creating encryptor: %w", err))
	}

	blobs, err := blob.NewStoreFromConfig(ctx, cfg.Blob, enc)
	if err != nil {
		store.Close()
		return fail(fmt.Errorf("creating blob store: %w", err))
	}

	conv := convert.NewConverterFromConfig(cfg.Converter)
	counter := pagecount.New(conv, &slogAdapter{l: logger})

	limits := ingest.Limits{
		MaxUploadBytes:      cfg.Upload.MaxUploadBytes,
		AllowedMimePrefixes: cfg.Upload.AllowedMimePrefixes,
	}
	svc := ingest.NewService(store, chunks, blobs, counter, limits,
		&slogAdapter{l: logger}, ingest.RealClock{}, ingest.UUIDGenerator{})

	return &App{
		cfg:     cfg,
		store:   store,
		chunks:  chunks,
		blobs:   blobs,
		enc:     enc,
		service: svc,
		logFile: logFile,
	}, nil
}

// Service returns the wired ingest service.
func (a *App) Service() *ingest.Service { return a.service }

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Encryptor returns the configured encryptor, or nil when encryption is
// disabled.
func (a *App) Encryptor() encryption.Encryptor { return a.enc }

// Unlock unlocks the encrypted blob store for reads. A no-op when
// encryption is disabled.
func (a *App) Unlock(passphrase string) error {
	es, ok := a.blobs.(*blob.EncryptedStore)
	if !ok {
		return nil
	}
	return es.Unlock(passphrase)
}

// Retention returns the configured idle-session retention window.
func (a *App) Retention() time.Duration {
	hours := a.cfg.Upload.RetentionHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Close releases the metadata store and the log file.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}
