package ingest

import "context"

// PageCounter derives a best-effort page or slide count for a file on
// local disk. Implementations never fail: any internal error at any stage
// yields nil, which means "unknown" and is a valid result.
type PageCounter interface {
	Count(ctx context.Context, path, mimeType, filename string) *int
}
