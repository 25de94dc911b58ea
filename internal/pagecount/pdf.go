package pagecount

import (
	"context"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFStrategy counts pages of natively paginated documents by parsing the
// PDF structure directly.
type PDFStrategy struct{}

func (*PDFStrategy) Name() string { return "pdf" }

func (*PDFStrategy) Count(ctx context.Context, path, mimeType, filename string) (int, bool) {
	if !isPDF(mimeType, filename) {
		return 0, false
	}
	return countPDFPages(path)
}

func isPDF(mimeType, filename string) bool {
	return strings.Contains(strings.ToLower(mimeType), "pdf") ||
		hasExt(filename, ".pdf")
}

// countPDFPages is shared with the conversion fallback, which applies it
// to the converted intermediate.
func countPDFPages(path string) (int, bool) {
	n, err := api.PageCountFile(path)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// hasExt reports whether filename ends in ext, case-insensitively.
func hasExt(filename, ext string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ext)
}
