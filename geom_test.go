package main

import "testing"

func TestOverlaps(t *testing.T) {
	// Probe fully inside the rectangle
	if !Overlaps(10, 10, 20, 0, 0, 100, 100) {
		t.Error("probe inside rectangle should overlap")
	}
	// Probe fully outside
	if Overlaps(200, 200, 20, 0, 0, 100, 100) {
		t.Error("distant probe should not overlap")
	}
	// Partial overlap on one axis
	if !Overlaps(90, 50, 20, 0, 0, 100, 100) {
		t.Error("partially overlapping probe should overlap")
	}
}

func TestOverlapsTouchingEdgesDoNotCollide(t *testing.T) {
	// Probe's left edge exactly at the rectangle's right edge
	if Overlaps(100, 50, 20, 0, 0, 100, 100) {
		t.Error("edge contact on x should not count as overlap")
	}
	// Probe's top edge exactly at the rectangle's bottom edge
	if Overlaps(50, 100, 20, 0, 0, 100, 100) {
		t.Error("edge contact on y should not count as overlap")
	}
	// Probe's right edge exactly at the rectangle's left edge
	if Overlaps(-20, 50, 20, 0, 0, 100, 100) {
		t.Error("edge contact from the left should not count as overlap")
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 10, 20); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	if got := Clamp(25, 10, 20); got != 20 {
		t.Errorf("expected 20, got %v", got)
	}
	if got := Clamp(15, 10, 20); got != 15 {
		t.Errorf("expected 15, got %v", got)
	}
}
