package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FakeConverter implements ingest.Converter without an external binary.
// Convert renders a PDF fixture with Pages pages into outDir, or fails
// with Err when set.
type FakeConverter struct {
	Unavailable bool
	Pages       int
	Err         error

	mu    sync.Mutex
	calls int
}

func (c *FakeConverter) Available() bool { return !c.Unavailable }

func (c *FakeConverter) Convert(_ context.Context, inputPath, targetFormat, outDir string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	if c.Err != nil {
		return "", c.Err
	}
	if targetFormat != "pdf" {
		return "", fmt.Errorf("unsupported target format: %s", targetFormat)
	}

	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	outPath := filepath.Join(outDir, base+".pdf")
	if err := os.WriteFile(outPath, PDFBytes(c.Pages), 0644); err != nil {
		return "", err
	}
	return outPath, nil
}

// Calls returns how many times Convert was invoked.
func (c *FakeConverter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
