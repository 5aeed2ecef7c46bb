package render

import "math"

// PathCommand is one Canvas2D path segment: ["M", x, y], ["L", x, y],
// ["Q", cx, cy, x, y], ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []any

// rectPath outlines a rectangle from the origin, with rounded corners when
// radius is positive.
func rectPath(w, h, radius float64) []PathCommand {
	r := math.Min(radius, math.Min(math.Abs(w), math.Abs(h))/2)
	if r <= 0 {
		return []PathCommand{
			{"M", 0.0, 0.0},
			{"L", w, 0.0},
			{"L", w, h},
			{"L", 0.0, h},
			{"Z"},
		}
	}
	return []PathCommand{
		{"M", r, 0.0},
		{"L", w - r, 0.0},
		{"Q", w, 0.0, w, r},
		{"L", w, h - r},
		{"Q", w, h, w - r, h},
		{"L", r, h},
		{"Q", 0.0, h, 0.0, h - r},
		{"L", 0.0, r},
		{"Q", 0.0, 0.0, r, 0.0},
		{"Z"},
	}
}

// ellipsePath approximates an ellipse centered on the origin with four
// cubic curves.
func ellipsePath(rx, ry float64) []PathCommand {
	// k = 4 * (sqrt(2) - 1) / 3
	k := 0.5522847498
	kx, ky := rx*k, ry*k
	return []PathCommand{
		{"M", rx, 0.0},
		{"C", rx, ky, kx, ry, 0.0, ry},
		{"C", -kx, ry, -rx, ky, -rx, 0.0},
		{"C", -rx, -ky, -kx, -ry, 0.0, -ry},
		{"C", kx, -ry, rx, -ky, rx, 0.0},
		{"Z"},
	}
}

// starPath alternates outer and inner vertices around the origin, starting
// straight up.
func starPath(points int, inner, outer float64) []PathCommand {
	if points < 2 {
		return nil
	}
	n := 2 * points
	path := make([]PathCommand, 0, n+1)
	for i := 0; i < n; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*math.Pi/float64(points) - math.Pi/2
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, r * math.Cos(a), r * math.Sin(a)})
	}
	return append(path, PathCommand{"Z"})
}

// linePath is an open polyline through flat x,y pairs.
func linePath(pts []float64) []PathCommand {
	if len(pts) < 4 {
		return nil
	}
	path := make([]PathCommand, 0, len(pts)/2)
	for i := 0; i+1 < len(pts); i += 2 {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, pts[i], pts[i+1]})
	}
	return path
}
