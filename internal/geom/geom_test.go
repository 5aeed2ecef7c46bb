package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestViewportRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		v    Viewport
		p    Point
	}{
		{"identity", NewViewport(), Point{12, 34}},
		{"zoomed", Viewport{Zoom: 2}, Point{10, 20}},
		{"panned", Viewport{Zoom: 1, Pan: Point{-50, 30}}, Point{5, 5}},
		{"both", Viewport{Zoom: 0.5, Pan: Point{100, -20}}, Point{-3, 7.5}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			back := c.v.StageToScreen(c.v.ScreenToStage(c.p))
			if !near(back.X, c.p.X) || !near(back.Y, c.p.Y) {
				t.Fatalf("round trip %v -> %v", c.p, back)
			}
		})
	}
}

func TestViewportZoomAtKeepsAnchor(t *testing.T) {
	v := Viewport{Zoom: 1, Pan: Point{20, 10}}
	anchor := Point{200, 150}
	before := v.ScreenToStage(anchor)

	z := v.ZoomAt(anchor, 2)
	after := z.ScreenToStage(anchor)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Fatalf("anchor moved: %v -> %v", before, after)
	}
	if z.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", z.Zoom)
	}

	if got := v.ZoomAt(anchor, 1000).Zoom; got != MaxZoom {
		t.Fatalf("zoom not clamped: %v", got)
	}
	if got := v.ZoomAt(anchor, 0.0001).Zoom; got != MinZoom {
		t.Fatalf("zoom not clamped: %v", got)
	}
}

func TestGridSnap(t *testing.T) {
	g := Grid{Size: 10, Enabled: true}
	cases := []struct {
		in, want float64
	}{
		{0, 0}, {4.9, 0}, {5, 10}, {14, 10}, {-4, 0}, {-6, -10}, {123, 120},
	}
	for _, c := range cases {
		if got := g.Snap(c.in); !near(got, c.want) {
			t.Errorf("Snap(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	off := Grid{Size: 10}
	if got := off.Snap(4.2); got != 4.2 {
		t.Fatalf("disabled grid snapped: %v", got)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0}, {360, 0}, {370, 10}, {-10, 350}, {-720, 0}, {359.5, 359.5},
	}
	for _, c := range cases {
		got := NormalizeDegrees(c.in)
		if !near(got, c.want) {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", c.in, got, c.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("NormalizeDegrees(%v) out of range: %v", c.in, got)
		}
	}
}

func TestMatrixInvert(t *testing.T) {
	m := FromTransform(30, -12, 2, 0.5, 33)
	p := Point{7, 9}
	back := m.Invert().Apply(m.Apply(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("invert round trip %v -> %v", p, back)
	}
	if !m.Multiply(m.Invert()).IsIdentity() {
		t.Fatalf("m * m^-1 is not identity")
	}
}

func TestTransformRectRotated(t *testing.T) {
	m := FromTransform(0, 0, 1, 1, 90)
	r := m.TransformRect(Rect{0, 0, 10, 20})
	if !near(r.X, -20) || !near(r.Y, 0) || !near(r.Width, 20) || !near(r.Height, 10) {
		t.Fatalf("rotated rect = %+v", r)
	}
}

func TestRectUnionAndIntersects(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{20, 5, 5, 20}
	u := a.Union(b)
	if u != (Rect{0, 0, 25, 25}) {
		t.Fatalf("union = %+v", u)
	}
	if a.Intersects(b) {
		t.Fatalf("disjoint rects intersect")
	}
	if !u.Intersects(b) {
		t.Fatalf("union should intersect member")
	}
	line := Rect{-5, 5, 30, 0}
	if !a.Intersects(line) {
		t.Fatalf("horizontal line through rect should intersect")
	}
}

func TestRectInset(t *testing.T) {
	r := Rect{10, 20, 30, 40}
	if got := r.Inset(-2); got != (Rect{8, 18, 34, 44}) {
		t.Fatalf("grow = %+v", got)
	}
	if got := r.Inset(5); got != (Rect{15, 25, 20, 30}) {
		t.Fatalf("shrink = %+v", got)
	}
}
