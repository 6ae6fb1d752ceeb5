package main

// Probe sizes for the square test shapes fed into Overlaps.
const (
	TankProbe   = 20.0
	BulletProbe = 3.0
)

// Overlaps reports whether a square probe of side r1 anchored at (x1,y1)
// intersects a w2×h2 rectangle anchored at its top-left corner (x2,y2).
// Strict inequalities: shapes that merely touch do not collide.
func Overlaps(x1, y1, r1, x2, y2, w2, h2 float64) bool {
	return x1 < x2+w2 && x1+r1 > x2 && y1 < y2+h2 && y1+r1 > y2
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
