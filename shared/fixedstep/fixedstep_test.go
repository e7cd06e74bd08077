package fixedstep

import (
	"testing"
	"time"
)

func TestAdvanceRunsWholeSteps(t *testing.T) {
	start := time.Unix(100, 0)
	s := New(10 * time.Millisecond)
	s.Start(start)

	count := 0
	n, interp := s.Advance(start.Add(35*time.Millisecond), func() { count++ })
	if n != 3 || count != 3 {
		t.Fatalf("ran %d ticks, want 3", n)
	}
	if interp < 0.49 || interp > 0.51 {
		t.Fatalf("interp = %v, want 0.5", interp)
	}

	// exactly one step since the last tick does not tick yet
	n, _ = s.Advance(start.Add(40*time.Millisecond), func() { count++ })
	if n != 0 {
		t.Fatalf("ran %d ticks at exact boundary, want 0", n)
	}
}

func TestAdvanceCatchesUpWithoutCap(t *testing.T) {
	start := time.Unix(0, 0)
	s := New(time.Second / 60)
	s.Start(start)
	now := start.Add(5 * time.Second)
	if s.Behind(now) < 299 {
		t.Fatalf("behind = %d", s.Behind(now))
	}
	n, _ := s.Advance(now, func() {})
	if n < 299 {
		t.Fatalf("caught up %d ticks, want about 300", n)
	}
}

func TestInterpClamped(t *testing.T) {
	start := time.Unix(0, 0)
	s := New(10 * time.Millisecond)
	s.Start(start)
	if f := s.Interp(start.Add(-time.Second)); f != 0 {
		t.Fatalf("interp before last = %v, want 0", f)
	}
	if f := s.Interp(start.Add(time.Second)); f != 1 {
		t.Fatalf("interp far ahead = %v, want 1", f)
	}
}
