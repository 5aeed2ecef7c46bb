package geom

import "math"

const (
	MinZoom = 0.1
	MaxZoom = 10.0
)

// Viewport maps between screen space and stage space. A stage point p is
// drawn at p*Zoom + Pan on screen.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`
}

// NewViewport returns the unzoomed, unpanned viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 || !Finite(v.Zoom) {
		return 1
	}
	return v.Zoom
}

// ScreenToStage converts a pointer position into stage coordinates.
func (v Viewport) ScreenToStage(p Point) Point {
	z := v.zoom()
	return Point{X: (p.X - v.Pan.X) / z, Y: (p.Y - v.Pan.Y) / z}
}

// StageToScreen converts a stage coordinate into screen pixels.
func (v Viewport) StageToScreen(p Point) Point {
	z := v.zoom()
	return Point{X: p.X*z + v.Pan.X, Y: p.Y*z + v.Pan.Y}
}

// ScreenDeltaToStage converts a pointer movement into a stage-space delta.
func (v Viewport) ScreenDeltaToStage(d Point) Point {
	z := v.zoom()
	return Point{X: d.X / z, Y: d.Y / z}
}

// Matrix returns the stage-to-screen transform.
func (v Viewport) Matrix() Matrix2D {
	z := v.zoom()
	return Matrix2D{z, 0, 0, z, v.Pan.X, v.Pan.Y}
}

// ZoomAt scales the view by factor while keeping the stage point under the
// screen position anchor fixed. The result is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(anchor Point, factor float64) Viewport {
	if factor <= 0 || !Finite(factor) {
		return v
	}
	stage := v.ScreenToStage(anchor)
	z := Clamp(v.zoom()*factor, MinZoom, MaxZoom)
	return Viewport{
		Zoom: z,
		Pan:  Point{X: anchor.X - stage.X*z, Y: anchor.Y - stage.Y*z},
	}
}

// PanBy shifts the view by a screen-space delta.
func (v Viewport) PanBy(d Point) Viewport {
	v.Pan = v.Pan.Add(d)
	return v
}

// Grid rounds stage coordinates to multiples of Size when Enabled.
type Grid struct {
	Size    float64 `json:"size"`
	Enabled bool    `json:"enabled"`
}

// Snap rounds v to the nearest grid line.
func (g Grid) Snap(v float64) float64 {
	if !g.Enabled || g.Size <= 0 {
		return v
	}
	return math.Round(v/g.Size) * g.Size
}

// SnapAngle rounds deg to a multiple of step when the grid is enabled and
// wraps the result into [0, 360).
func (g Grid) SnapAngle(deg, step float64) float64 {
	if g.Enabled && step > 0 {
		deg = math.Round(deg/step) * step
	}
	return NormalizeDegrees(deg)
}
