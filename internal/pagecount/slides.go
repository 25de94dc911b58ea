package pagecount

import (
	"archive/zip"
	"context"
	"regexp"
	"strings"
)

// slideEntry matches the per-slide XML parts of an OOXML presentation.
var slideEntry = regexp.MustCompile(`^ppt/slides/slide[0-9]+\.xml$`)

// SlideDeckStrategy counts slides of an OOXML presentation (.pptx) by
// walking the zip container directly; no XML parsing is needed because
// each slide is exactly one part. Legacy binary .ppt is left for the
// conversion fallback.
type SlideDeckStrategy struct{}

func (*SlideDeckStrategy) Name() string { return "slides" }

func (*SlideDeckStrategy) Count(ctx context.Context, path, mimeType, filename string) (int, bool) {
	if !isSlideDeck(mimeType, filename) {
		return 0, false
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		// Not a zip container: a legacy .ppt lands here and falls
		// through to conversion.
		return 0, false
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if slideEntry.MatchString(f.Name) {
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return count, true
}

func isSlideDeck(mimeType, filename string) bool {
	mt := strings.ToLower(mimeType)
	return strings.Contains(mt, "presentation") ||
		strings.Contains(mt, "powerpoint") ||
		hasExt(filename, ".pptx") ||
		hasExt(filename, ".ppt")
}
