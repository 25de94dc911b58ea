// Package pagecount derives a best-effort page or slide count for an
// uploaded document. It is a chain of independent strategies tried in a
// fixed order; the first one that produces a count wins, and exhausting
// the chain yields nil ("unknown"), which is a normal result. Nothing in
// this package ever fails an ingestion.
package pagecount

import (
	"context"

	"resourcehub/internal/ingest"
)

// Strategy is one stage of the cascade. Count returns (n, true) when the
// strategy recognizes the input and produced a count, and (0, false) when
// the input is not its format or anything went wrong.
type Strategy interface {
	Name() string
	Count(ctx context.Context, path, mimeType, filename string) (int, bool)
}

// Cascade implements ingest.PageCounter as an ordered strategy chain.
// Strategy availability (notably whether an external converter exists) is
// resolved once at construction, not probed per call.
type Cascade struct {
	strategies []Strategy
	logger     ingest.Logger
}

var _ ingest.PageCounter = (*Cascade)(nil)

// New builds the standard cascade: paginated documents, slide decks,
// multi-frame images, then external conversion to PDF as a last resort.
// conv may be nil or unavailable, in which case the last stage is omitted.
func New(conv ingest.Converter, logger ingest.Logger) *Cascade {
	if logger == nil {
		logger = ingest.NewNopLogger()
	}

	strategies := []Strategy{
		&PDFStrategy{},
		&SlideDeckStrategy{},
		&ImageStrategy{},
	}
	if conv != nil && conv.Available() {
		strategies = append(strategies, &ConversionStrategy{Converter: conv})
	}

	return &Cascade{strategies: strategies, logger: logger}
}

// NewWithStrategies builds a cascade over an explicit chain. Used by tests
// and callers with custom stages.
func NewWithStrategies(logger ingest.Logger, strategies ...Strategy) *Cascade {
	if logger == nil {
		logger = ingest.NewNopLogger()
	}
	return &Cascade{strategies: strategies, logger: logger}
}

// Count runs the chain. It never returns an error and never panics; a
// panic inside a parsing library counts as that stage failing.
func (c *Cascade) Count(ctx context.Context, path, mimeType, filename string) (result *int) {
	for _, s := range c.strategies {
		n, ok := c.tryStrategy(ctx, s, path, mimeType, filename)
		if ok && n >= 0 {
			c.logger.Debug("page count resolved", "strategy", s.Name(), "file", filename, "pages", n)
			return &n
		}
	}
	return nil
}

func (c *Cascade) tryStrategy(ctx context.Context, s Strategy, path, mimeType, filename string) (n int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("page count strategy panicked", "strategy", s.Name(), "file", filename, "panic", r)
			n, ok = 0, false
		}
	}()
	return s.Count(ctx, path, mimeType, filename)
}
