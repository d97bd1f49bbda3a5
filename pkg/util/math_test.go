package util

import "testing"

func TestRamp(t *testing.T) {
	if got := Ramp(0.5, 0, 1); got != 0.5 {
		t.Fatalf("midpoint: got %v", got)
	}
	if got := Ramp(-1, 0, 1); got != 0 {
		t.Fatalf("below range: got %v", got)
	}
	if got := Ramp(2, 0, 1); got != 1 {
		t.Fatalf("above range: got %v", got)
	}
	// Degenerate range becomes a step.
	if got := Ramp(1, 1, 1); got != 1 {
		t.Fatalf("degenerate at threshold: got %v", got)
	}
	if got := Ramp(0.9, 1, 1); got != 0 {
		t.Fatalf("degenerate below threshold: got %v", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, -1, 1); got != 1 {
		t.Fatalf("got %v", got)
	}
	if got := Clamp(-5, -1, 1); got != -1 {
		t.Fatalf("got %v", got)
	}
	if got := Clamp(0.3, -1, 1); got != 0.3 {
		t.Fatalf("got %v", got)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(1, 0, 42); got != 42 {
		t.Fatalf("zero denominator must return default, got %v", got)
	}
	if got := SafeDiv(6, 3, 0); got != 2 {
		t.Fatalf("got %v", got)
	}
}
