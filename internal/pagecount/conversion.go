package pagecount

import (
	"context"
	"os"

	"resourcehub/internal/ingest"
)

// ConversionStrategy is the last stage of the cascade: it renders any
// remaining format (notably legacy word-processor and presentation
// binaries) into a paginated PDF intermediate with the external converter
// and counts that. A timeout or failed conversion means the stage simply
// produces nothing.
type ConversionStrategy struct {
	Converter ingest.Converter
}

func (*ConversionStrategy) Name() string { return "convert" }

func (s *ConversionStrategy) Count(ctx context.Context, path, mimeType, filename string) (int, bool) {
	if s.Converter == nil || !s.Converter.Available() {
		return 0, false
	}

	outDir, err := os.MkdirTemp("", "resourcehub-convert-*")
	if err != nil {
		return 0, false
	}
	defer os.RemoveAll(outDir)

	pdfPath, err := s.Converter.Convert(ctx, path, "pdf", outDir)
	if err != nil {
		return 0, false
	}
	return countPDFPages(pdfPath)
}
