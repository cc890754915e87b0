package lodtree

import (
	"math"
	"testing"
)

func TestRoundRectPathEqualLengths(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 60}
	for _, segs := range []int{1, 2, 4, 8, 16} {
		outer := roundRectPath(nil, r, 8, segs)
		inner := roundRectPath(nil, r.Inset(2), 6, segs)
		if len(outer) != len(inner) || len(outer) != 4*(segs+1) {
			t.Errorf("segs %d: lengths %d, %d, want %d", segs, len(outer), len(inner), 4*(segs+1))
		}
	}
}

func TestRoundRectPathStaysInside(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 40, Height: 20}
	// Radius larger than half the height is clamped.
	for _, p := range roundRectPath(nil, r, 50, 8) {
		if p.X < -epsilon || p.X > 40+epsilon || p.Y < -epsilon || p.Y > 20+epsilon {
			t.Errorf("point %v outside %+v", p, r)
		}
	}
}

func TestRoundRectPathCircle(t *testing.T) {
	c := circleRect(50, 50, 20)
	for _, p := range roundRectPath(nil, c, 20, 8) {
		if d := math.Hypot(p.X-50, p.Y-50); !approxEqual(d, 20, 1e-9) {
			t.Errorf("point %v at distance %v, want 20", p, d)
		}
	}
}

func TestArcSegments(t *testing.T) {
	prev := 0
	for _, r := range []float64{0, 1, 8, 32, 128} {
		n := arcSegments(r)
		if n < 1 || n < prev {
			t.Errorf("arcSegments(%v) = %d, should be >= 1 and non-decreasing", r, n)
		}
		prev = n
	}
}

func TestImageSurfaceSetView(t *testing.T) {
	s := NewImageSurface(nil)
	s.SetView([6]float64{2, 0, 0, 2, 10, 10})
	if s.zoom != 2 {
		t.Errorf("zoom = %v, want 2", s.zoom)
	}
	s.SetView([6]float64{0, 0, 0, 0, 0, 0})
	if s.zoom != 1 {
		t.Errorf("degenerate view zoom = %v, want 1", s.zoom)
	}
}
