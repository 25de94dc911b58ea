package ingest

import "context"

// Converter renders a document into another format via an external tool.
// Availability is resolved once at startup so the page counting cascade can
// skip the conversion stage cheaply instead of probing per call.
type Converter interface {
	// Available reports whether the converter can be invoked at all.
	Available() bool

	// Convert renders inputPath into targetFormat inside outDir and
	// returns the output file path. The context bounds the subprocess; a
	// timeout or failure returns an error wrapping
	// ErrConversionUnavailable.
	Convert(ctx context.Context, inputPath, targetFormat, outDir string) (string, error)
}
