// Package convert wraps an external document converter (LibreOffice's
// soffice) behind the ingest.Converter interface. Availability is probed
// once at construction, so callers can skip conversion cheaply when the
// binary is absent.
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"resourcehub/internal/config"
	"resourcehub/internal/ingest"
)

// DefaultTimeout bounds one conversion subprocess.
const DefaultTimeout = 30 * time.Second

// SofficeConverter runs `soffice --headless --convert-to <format>` as an
// isolated subprocess with a bounded timeout.
type SofficeConverter struct {
	binary    string
	timeout   time.Duration
	available bool
}

var _ ingest.Converter = (*SofficeConverter)(nil)

// NewSofficeConverter creates a converter from configuration and resolves
// availability by probing the PATH once.
func NewSofficeConverter(cfg config.ConverterConfig) *SofficeConverter {
	binary := cfg.Binary
	if binary == "" {
		binary = "soffice"
	}
	timeout := DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	available := false
	if !cfg.Disabled {
		if _, err := exec.LookPath(binary); err == nil {
			available = true
		}
	}

	return &SofficeConverter{
		binary:    binary,
		timeout:   timeout,
		available: available,
	}
}

// Available reports whether the converter binary was found at startup.
func (c *SofficeConverter) Available() bool { return c.available }

// Convert renders inputPath into targetFormat inside outDir and returns
// the output path. A missing binary, subprocess failure, or timeout all
// report ErrConversionUnavailable; callers treat them identically.
func (c *SofficeConverter) Convert(ctx context.Context, inputPath, targetFormat, outDir string) (string, error) {
	if !c.available {
		return "", ingest.ErrConversionUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary,
		"--headless", "--convert-to", targetFormat, "--outdir", outDir, inputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: %s failed: %v: %s",
			ingest.ErrConversionUnavailable, c.binary, err, strings.TrimSpace(string(out)))
	}

	// soffice writes <outdir>/<input base>.<format>.
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(outDir, base+"."+targetFormat)
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("%w: expected output missing: %v", ingest.ErrConversionUnavailable, err)
	}
	return outPath, nil
}

// NewConverterFromConfig builds the configured converter. Kept separate
// from the constructor so future converter types slot in beside soffice.
func NewConverterFromConfig(cfg config.ConverterConfig) ingest.Converter {
	return NewSofficeConverter(cfg)
}
