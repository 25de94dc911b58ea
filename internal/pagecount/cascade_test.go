package pagecount

import (
	"context"
	"testing"
)

// stubStrategy is a scriptable cascade stage.
type stubStrategy struct {
	name   string
	n      int
	ok     bool
	panics bool
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Count(context.Context, string, string, string) (int, bool) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.n, s.ok
}

func TestCascadeFirstHitWins(t *testing.T) {
	miss := &stubStrategy{name: "miss"}
	hit := &stubStrategy{name: "hit", n: 5, ok: true}
	later := &stubStrategy{name: "later", n: 99, ok: true}

	c := NewWithStrategies(nil, miss, hit, later)
	got := c.Count(context.Background(), "/tmp/x", "", "x.bin")

	if got == nil || *got != 5 {
		t.Fatalf("Count = %v, want 5", got)
	}
	if miss.calls != 1 || hit.calls != 1 {
		t.Error("earlier strategies not consulted in order")
	}
	if later.calls != 0 {
		t.Error("later strategy consulted after a hit")
	}
}

func TestCascadeExhaustedIsUnknown(t *testing.T) {
	c := NewWithStrategies(nil, &stubStrategy{name: "a"}, &stubStrategy{name: "b"})
	if got := c.Count(context.Background(), "/tmp/x", "", "x.bin"); got != nil {
		t.Errorf("Count = %v, want nil", got)
	}
}

func TestCascadeSurvivesPanic(t *testing.T) {
	angry := &stubStrategy{name: "angry", panics: true}
	calm := &stubStrategy{name: "calm", n: 2, ok: true}

	c := NewWithStrategies(nil, angry, calm)
	got := c.Count(context.Background(), "/tmp/x", "", "x.bin")

	if got == nil || *got != 2 {
		t.Fatalf("Count = %v, want 2", got)
	}
}

func TestCascadeIgnoresNegativeCounts(t *testing.T) {
	bad := &stubStrategy{name: "bad", n: -1, ok: true}
	c := NewWithStrategies(nil, bad)
	if got := c.Count(context.Background(), "/tmp/x", "", "x.bin"); got != nil {
		t.Errorf("Count = %v, want nil", got)
	}
}

func TestNewOmitsConversionWhenUnavailable(t *testing.T) {
	c := New(nil, nil)
	if len(c.strategies) != 3 {
		t.Errorf("strategies = %d, want 3 without a converter", len(c.strategies))
	}
}
