package transform

import (
	"fmt"
	"math"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// DragSession replays a pointer drag against the scene it started on.
// Each move applies the total delta since the press, so snapping never
// accumulates rounding error across frames.
type DragSession struct {
	origin *scene.Scene
	ids    []string
	grid   geom.Grid
	total  geom.Point
}

// BeginDrag starts a drag of ids over sc.
func BeginDrag(sc *scene.Scene, ids []string, grid geom.Grid) *DragSession {
	return &DragSession{origin: sc, ids: append([]string(nil), ids...), grid: grid}
}

// Move adds a stage-space delta and returns the scene with the full drag
// applied.
func (d *DragSession) Move(dx, dy float64) (*scene.Scene, error) {
	d.total = d.total.Add(geom.Point{X: dx, Y: dy})
	if d.total == (geom.Point{}) {
		return d.origin, nil
	}
	out, _, err := Drag(d.origin, d.ids, d.total.X, d.total.Y, d.grid)
	return out, err
}

// Total is the raw delta accumulated so far.
func (d *DragSession) Total() geom.Point { return d.total }

// Origin is the scene the drag started from.
func (d *DragSession) Origin() *scene.Scene { return d.origin }

// ResizeSession turns pointer motion on a handle into Resize calls.
type ResizeSession struct {
	origin    *scene.Scene
	id        string
	handle    Anchor
	keepRatio bool
	grid      geom.Grid
	el        document.Element
	total     geom.Point
}

// BeginResize starts resizing id by the given handle.
func BeginResize(sc *scene.Scene, id string, handle Anchor, keepRatio bool, grid geom.Grid) (*ResizeSession, error) {
	el, ok := sc.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	if sc.LayerLocked(el.LayerIndex) {
		return nil, ErrLocked
	}
	return &ResizeSession{origin: sc, id: id, handle: handle, keepRatio: keepRatio, grid: grid, el: el}, nil
}

// Move adds a stage-space pointer delta. The delta is projected onto the
// element's own axes before it grows or shrinks the box.
func (r *ResizeSession) Move(dx, dy float64) (*scene.Scene, error) {
	r.total = r.total.Add(geom.Point{X: dx, Y: dy})
	if r.total == (geom.Point{}) {
		return r.origin, nil
	}
	local := geom.RotateDegrees(-r.el.Rotation).ApplyVector(r.total)
	if r.el.Type != document.TypeGroup {
		local.X /= r.el.ScaleX
		local.Y /= r.el.ScaleY
	}
	w0, h0 := Size(r.el)
	w, h := w0+local.X, h0+local.Y
	if r.handle.movesLeft() {
		w = w0 - local.X
	}
	if r.handle.movesTop() {
		h = h0 - local.Y
	}
	return Resize(r.origin, r.id, w, h, r.handle, r.keepRatio, r.grid)
}

// RotateSession rotates an element to follow the pointer around its
// center.
type RotateSession struct {
	origin *scene.Scene
	id     string
	grid   geom.Grid
	pivot  geom.Point
	start  float64
}

// BeginRotate starts rotating id with the pointer pressed at p.
func BeginRotate(sc *scene.Scene, id string, p geom.Point, grid geom.Grid) (*RotateSession, error) {
	el, ok := sc.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	if sc.LayerLocked(el.LayerIndex) {
		return nil, ErrLocked
	}
	pivot := sc.Bounds(id).Center()
	return &RotateSession{origin: sc, id: id, grid: grid, pivot: pivot, start: angle(pivot, p)}, nil
}

// Move rotates by the angle swept between the press point and p.
func (r *RotateSession) Move(p geom.Point) (*scene.Scene, error) {
	swept := angle(r.pivot, p) - r.start
	if swept == 0 {
		return r.origin, nil
	}
	return Rotate(r.origin, r.id, swept, r.grid)
}

func angle(c, p geom.Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * 180 / math.Pi
}
