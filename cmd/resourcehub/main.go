package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"syscall"

	"resourcehub/internal/app"
	"resourcehub/internal/config"
	"resourcehub/internal/convert"
	"resourcehub/internal/ingest"
	"resourcehub/internal/model"
	"resourcehub/internal/pagecount"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run.
func newApp(ctx context.Context, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

// guessMime resolves the declared MIME type for an upload: the flag wins,
// then the filename extension.
func guessMime(flag, filename string) string {
	if flag != "" {
		return flag
	}
	return mime.TypeByExtension(filepath.Ext(filename))
}

var rootCmd = &cobra.Command{
	Use:   "resourcehub",
	Short: "Document ingestion service",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Tmp Dir:    %s\n", cfg.TmpDir)
		fmt.Printf("Blob:       %s\n", cfg.Blob.Type)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the at-rest encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "KeysInit")
		if err != nil {
			return err
		}
		defer a.Close()

		enc := a.Encryptor()
		if enc == nil {
			return fmt.Errorf("encryption is disabled in the config")
		}
		if enc.IsConfigured() {
			return fmt.Errorf("key pair already exists")
		}

		passphrase, err := readPassphrase("New key passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}

		fmt.Println("Key pair generated.")
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file (single-shot path)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		mimeFlag, _ := cmd.Flags().GetString("mime")
		name, _ := cmd.Flags().GetString("name")
		chunked, _ := cmd.Flags().GetBool("chunked")
		chunkSize, _ := cmd.Flags().GetInt64("chunk-size")

		operation := "SimpleUpload"
		if chunked {
			operation = "Upload"
		}
		a, err := newApp(cmd.Context(), operation)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening file: %w", err)
		}
		defer f.Close()

		if name == "" {
			name = filepath.Base(args[0])
		}

		var rf *model.ResourceFile
		if chunked {
			rf, err = chunkedUpload(cmd.Context(), a.Service(), f, owner, name, guessMime(mimeFlag, name), chunkSize)
		} else {
			rf, err = a.Service().SimpleUpload(cmd.Context(), owner, name, guessMime(mimeFlag, name), f)
		}
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Printf("File ID:  %s\n", rf.ID)
		fmt.Printf("Locator:  %s\n", rf.StoragePath)
		fmt.Printf("Size:     %d\n", rf.Size)
		fmt.Printf("SHA-256:  %s\n", rf.SHA256)
		if rf.Pages != nil {
			fmt.Printf("Pages:    %d\n", *rf.Pages)
		}
		return nil
	},
}

// chunkedUpload drives the session-based flow end to end: initiate,
// write every chunk in order, complete.
func chunkedUpload(ctx context.Context, svc *ingest.Service, f *os.File, owner, name, mimeType string, chunkSize int64) (*model.ResourceFile, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	size := info.Size()
	if chunkSize <= 0 {
		chunkSize = ingest.DefaultChunkSize
	}

	sessionID, err := svc.Initiate(ctx, owner, name, mimeType, size, chunkSize)
	if err != nil {
		return nil, err
	}

	totalChunks := int((size + chunkSize - 1) / chunkSize)
	if totalChunks < 1 {
		totalChunks = 1
	}
	for idx := 0; idx < totalChunks; idx++ {
		chunk := io.LimitReader(f, chunkSize)
		if err := svc.WriteChunk(ctx, sessionID, idx, totalChunks, chunk); err != nil {
			svc.Abort(ctx, sessionID)
			return nil, err
		}
	}

	rf, err := svc.Complete(ctx, sessionID)
	if err != nil {
		svc.Abort(ctx, sessionID)
		return nil, err
	}
	return rf, nil
}

// get command
var getCmd = &cobra.Command{
	Use:   "get FILE_ID [OUT]",
	Short: "Download a stored file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Open")
		if err != nil {
			return err
		}
		defer a.Close()

		if enc := a.Encryptor(); enc != nil {
			passphrase, err := readPassphrase("Key passphrase: ")
			if err != nil {
				return err
			}
			if err := a.Unlock(passphrase); err != nil {
				return err
			}
		}

		rc, rf, err := a.Service().Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer rc.Close()

		outPath := rf.Name
		if len(args) > 1 {
			outPath = args[1]
		}
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer out.Close()

		if _, err := io.Copy(out, rc); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		fmt.Printf("Wrote %s\n", outPath)
		return nil
	},
}

// verify command
var verifyCmd = &cobra.Command{
	Use:   "verify FILE_ID",
	Short: "Re-verify a stored file against its recorded checksum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Verify")
		if err != nil {
			return err
		}
		defer a.Close()

		if enc := a.Encryptor(); enc != nil {
			passphrase, err := readPassphrase("Key passphrase: ")
			if err != nil {
				return err
			}
			if err := a.Unlock(passphrase); err != nil {
				return err
			}
		}

		if err := a.Service().Verify(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil
	},
}

// count command
var countCmd = &cobra.Command{
	Use:   "count FILE",
	Short: "Count pages/slides of a local file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one file")
		}

		defaults, err := app.GetDefaults()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return err
		}

		conv := convert.NewConverterFromConfig(cfg.Converter)
		cascade := pagecount.New(conv, ingest.NewNopLogger())

		name := filepath.Base(args[0])
		pages := cascade.Count(cmd.Context(), args[0], guessMime("", name), name)
		if pages == nil {
			fmt.Println("unknown")
			return nil
		}
		fmt.Println(*pages)
		return nil
	},
}

// uploads command: session housekeeping
var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Manage upload sessions",
}

var uploadsStatusCmd = &cobra.Command{
	Use:   "status UPLOAD_ID",
	Short: "Show progress of an upload session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Service().Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Status:  %s\n", st.Status)
		fmt.Printf("Chunks:  %d/%d present (counter: %d)\n", len(st.PresentChunks), st.TotalChunks, st.UploadedChunks)
		return nil
	},
}

var uploadsAbortCmd = &cobra.Command{
	Use:   "abort UPLOAD_ID",
	Short: "Abort an upload session and discard its chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Abort")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Abort(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Aborted.")
		return nil
	},
}

var uploadsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Abort and garbage-collect idle upload sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Sweep")
		if err != nil {
			return err
		}
		defer a.Close()

		swept, err := a.Service().Sweep(cmd.Context(), a.Retention())
		if err != nil {
			return err
		}
		fmt.Printf("Swept %d session(s)\n", swept)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)

	uploadCmd.Flags().String("owner", "local", "Owner ID to record on the file")
	uploadCmd.Flags().String("mime", "", "Declared MIME type (default: guessed from extension)")
	uploadCmd.Flags().String("name", "", "Declared filename (default: basename)")
	uploadCmd.Flags().Bool("chunked", false, "Use the chunked session flow")
	uploadCmd.Flags().Int64("chunk-size", 0, "Chunk size in bytes for --chunked (default: 5 MiB)")

	uploadsCmd.AddCommand(uploadsStatusCmd)
	uploadsCmd.AddCommand(uploadsAbortCmd)
	uploadsCmd.AddCommand(uploadsSweepCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(uploadsCmd)
}
