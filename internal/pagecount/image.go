package pagecount

import (
	"context"
	"encoding/binary"
	"image"
	"image/gif"
	"io"
	"os"
	"strings"

	_ "image/jpeg" // register decoders for the single-frame fallback
	_ "image/png"
)

// ImageStrategy returns the frame count for image containers that support
// multiple frames/pages (GIF, TIFF) and 1 for any other decodable image.
type ImageStrategy struct{}

func (*ImageStrategy) Name() string { return "image" }

func (*ImageStrategy) Count(ctx context.Context, path, mimeType, filename string) (int, bool) {
	if !isImage(mimeType, filename) {
		return 0, false
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	switch {
	case strings.Contains(strings.ToLower(mimeType), "gif") || hasExt(filename, ".gif"):
		if n, ok := countGIFFrames(f); ok {
			return n, true
		}
	case strings.Contains(strings.ToLower(mimeType), "tiff") || hasExt(filename, ".tiff") || hasExt(filename, ".tif"):
		if n, ok := countTIFFPages(f); ok {
			return n, true
		}
	}

	// Anything else decodable is a single page. Seek back in case a
	// frame counter above consumed the header and failed.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, false
	}
	if _, _, err := image.DecodeConfig(f); err != nil {
		return 0, false
	}
	return 1, true
}

func isImage(mimeType, filename string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return true
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".tiff", ".tif", ".bmp", ".webp"} {
		if hasExt(filename, ext) {
			return true
		}
	}
	return false
}

func countGIFFrames(r io.Reader) (int, bool) {
	g, err := gif.DecodeAll(r)
	if err != nil || len(g.Image) == 0 {
		return 0, false
	}
	return len(g.Image), true
}

// countTIFFPages walks the IFD chain of a TIFF file. Each IFD is one page;
// the walk needs only the 8-byte header, each IFD's entry count, and the
// next-IFD pointer that follows the entries.
func countTIFFPages(r io.ReadSeeker) (int, bool) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, false
	}

	var order binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, false
	}
	if order.Uint16(header[2:4]) != 42 {
		return 0, false
	}

	const maxPages = 1 << 16 // cycle guard for corrupt files
	offset := int64(order.Uint32(header[4:8]))
	count := 0
	for offset != 0 && count < maxPages {
		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return 0, false
		}
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return 0, false
		}
		entries := int64(order.Uint16(buf[:2]))
		if _, err := r.Seek(offset+2+entries*12, io.SeekStart); err != nil {
			return 0, false
		}
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return 0, false
		}
		count++
		offset = int64(order.Uint32(buf[:4]))
	}
	if count == 0 {
		return 0, false
	}
	return count, true
}
