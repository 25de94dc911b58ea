package pagecount

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"resourcehub/internal/testutil"
)

func TestConversionStrategyCountsConvertedPDF(t *testing.T) {
	conv := &testutil.FakeConverter{Pages: 9}
	s := &ConversionStrategy{Converter: conv}

	path := filepath.Join(t.TempDir(), "legacy.doc")
	os.WriteFile(path, []byte("binary word document"), 0644)

	n, ok := s.Count(context.Background(), path, "application/msword", "legacy.doc")
	if !ok || n != 9 {
		t.Errorf("Count = (%d, %v), want (9, true)", n, ok)
	}
	if conv.Calls() != 1 {
		t.Errorf("converter calls = %d, want 1", conv.Calls())
	}
}

func TestConversionStrategyUnavailable(t *testing.T) {
	s := &ConversionStrategy{Converter: &testutil.FakeConverter{Unavailable: true}}
	if _, ok := s.Count(context.Background(), "/tmp/x.doc", "", "x.doc"); ok {
		t.Error("strategy produced a count without a converter")
	}
}

func TestConversionStrategyNilConverter(t *testing.T) {
	s := &ConversionStrategy{}
	if _, ok := s.Count(context.Background(), "/tmp/x.doc", "", "x.doc"); ok {
		t.Error("strategy produced a count with nil converter")
	}
}

func TestConversionStrategyConverterFailure(t *testing.T) {
	s := &ConversionStrategy{Converter: &testutil.FakeConverter{Err: errors.New("conversion exploded")}}
	if _, ok := s.Count(context.Background(), "/tmp/x.doc", "", "x.doc"); ok {
		t.Error("strategy produced a count despite converter failure")
	}
}

func TestNewIncludesConversionWhenAvailable(t *testing.T) {
	c := New(&testutil.FakeConverter{Pages: 1}, nil)
	if len(c.strategies) != 4 {
		t.Errorf("strategies = %d, want 4 with a converter", len(c.strategies))
	}

	// End to end through the cascade: a legacy format only the converter
	// can handle.
	path := filepath.Join(t.TempDir(), "memo.doc")
	os.WriteFile(path, []byte("legacy"), 0644)

	got := c.Count(context.Background(), path, "application/msword", "memo.doc")
	if got == nil || *got != 1 {
		t.Errorf("Count = %v, want 1", got)
	}
}
