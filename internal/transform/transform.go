// Package transform applies drag, resize and rotate gestures to scene
// elements, honoring layer locks and grid snapping.
package transform

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// ErrLocked is returned when every target element sits on a locked layer.
var ErrLocked = errors.New("element is on a locked layer")

const (
	// MinSize is the smallest width or height a resize can produce.
	MinSize = 1.0
	// RotationStep is the angle rotation snaps to while snapping is on.
	RotationStep = 15.0
)

// Drag moves every unlocked element in ids by the same delta. Locked
// elements are skipped rather than failing the gesture, and an element
// whose group is also being dragged is left to the group.
//
// With snapping on, the delta is snapped once: the first movable element's
// resulting position is rounded to the grid and every element moves by the
// same snapped delta, so members never drift apart.
func Drag(sc *scene.Scene, ids []string, dx, dy float64, grid geom.Grid) (*scene.Scene, []string, error) {
	if !geom.Finite(dx, dy) {
		return sc, nil, fmt.Errorf("%w: non-finite delta", scene.ErrInvalidElement)
	}
	movable := Movable(sc, ids)
	if len(movable) == 0 {
		return sc, nil, noTargets(sc, ids)
	}

	ref, _ := sc.Get(movable[0])
	sdx := grid.Snap(ref.X+dx) - ref.X
	sdy := grid.Snap(ref.Y+dy) - ref.Y
	if sdx == 0 && sdy == 0 {
		return sc, movable, nil
	}

	out, err := sc.Edit(func(tx *scene.Tx) error {
		for _, id := range movable {
			if err := tx.Mutate(id, func(el *document.Element) {
				el.X += sdx
				el.Y += sdy
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return sc, nil, err
	}
	return out, movable, nil
}

// Movable filters ids down to existing, unlocked elements, dropping
// duplicates and members whose group is also listed.
func Movable(sc *scene.Scene, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		el, ok := sc.Get(id)
		if !ok || sc.LayerLocked(el.LayerIndex) || slices.Contains(out, id) {
			continue
		}
		if el.GroupID != "" && slices.Contains(ids, el.GroupID) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func noTargets(sc *scene.Scene, ids []string) error {
	for _, id := range ids {
		if sc.Has(id) {
			return ErrLocked
		}
	}
	return scene.ErrNotFound
}

// Anchor names the resize handle being dragged. The opposite corner (or
// edge) stays where it is.
type Anchor int

const (
	BottomRight Anchor = iota
	BottomLeft
	TopRight
	TopLeft
	Right
	Left
	Bottom
	Top
)

var anchorNames = map[Anchor]string{
	BottomRight: "bottom-right",
	BottomLeft:  "bottom-left",
	TopRight:    "top-right",
	TopLeft:     "top-left",
	Right:       "middle-right",
	Left:        "middle-left",
	Bottom:      "bottom-center",
	Top:         "top-center",
}

func (a Anchor) String() string {
	if s, ok := anchorNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Anchor(%d)", int(a))
}

// ParseAnchor accepts the names String produces.
func ParseAnchor(s string) (Anchor, bool) {
	for a, name := range anchorNames {
		if name == s {
			return a, true
		}
	}
	return 0, false
}

func (a Anchor) movesLeft() bool { return a == TopLeft || a == BottomLeft || a == Left }
func (a Anchor) movesTop() bool  { return a == TopLeft || a == TopRight || a == Top }
func (a Anchor) changesWidth() bool {
	return a != Top && a != Bottom
}
func (a Anchor) changesHeight() bool {
	return a != Left && a != Right
}

// Size is the width and height a resize works in. For groups it is the
// displayed size (creation box times scale); for everything else it is the
// unscaled local box.
func Size(el document.Element) (float64, float64) {
	if el.Type == document.TypeGroup {
		return el.Width * math.Abs(el.ScaleX), el.Height * math.Abs(el.ScaleY)
	}
	b := el.LocalBounds()
	return b.Width, b.Height
}

// Resize gives one element a new size, keeping the corner opposite the
// dragged handle fixed. keepRatio preserves the current aspect ratio,
// following whichever dimension changed more. With snapping on the
// resulting position and size are rounded to the grid.
func Resize(sc *scene.Scene, id string, width, height float64, handle Anchor, keepRatio bool, grid geom.Grid) (*scene.Scene, error) {
	el, ok := sc.Get(id)
	if !ok {
		return sc, fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	if sc.LayerLocked(el.LayerIndex) {
		return sc, ErrLocked
	}
	if !geom.Finite(width, height) {
		return sc, fmt.Errorf("%w: non-finite size", scene.ErrInvalidElement)
	}

	w0, h0 := Size(el)
	w, h := width, height
	if !handle.changesWidth() {
		w = w0
	}
	if !handle.changesHeight() {
		h = h0
	}
	if keepRatio && w0 > 0 && h0 > 0 {
		ratio := w0 / h0
		switch {
		case !handle.changesWidth():
			w = h * ratio
		case !handle.changesHeight():
			h = w / ratio
		case math.Abs(w/w0-1) >= math.Abs(h/h0-1):
			h = w / ratio
		default:
			w = h * ratio
		}
	}
	w = max(grid.Snap(w), MinSize)
	h = max(grid.Snap(h), MinSize)
	if el.Type == document.TypeStar {
		w = min(w, h)
		h = w
	}

	// Shift of the element origin that keeps the fixed corner in place,
	// expressed along the element's own axes in displayed units.
	var sx, sy float64
	centered := el.Type == document.TypeEllipse || el.Type == document.TypeStar
	switch {
	case centered && handle.changesWidth():
		if handle.movesLeft() {
			sx = (w0 - w) / 2
		} else {
			sx = (w - w0) / 2
		}
	case handle.movesLeft():
		sx = w0 - w
	}
	switch {
	case centered && handle.changesHeight():
		if handle.movesTop() {
			sy = (h0 - h) / 2
		} else {
			sy = (h - h0) / 2
		}
	case handle.movesTop():
		sy = h0 - h
	}
	if el.Type != document.TypeGroup {
		sx *= el.ScaleX
		sy *= el.ScaleY
	}
	shift := geom.RotateDegrees(el.Rotation).ApplyVector(geom.Point{X: sx, Y: sy})

	return sc.Edit(func(tx *scene.Tx) error {
		return tx.Mutate(id, func(el *document.Element) {
			resizeShape(el, w0, h0, w, h)
			el.X = grid.Snap(el.X + shift.X)
			el.Y = grid.Snap(el.Y + shift.Y)
		})
	})
}

func resizeShape(el *document.Element, w0, h0, w, h float64) {
	switch el.Type {
	case document.TypeEllipse:
		el.RadiusX, el.RadiusY = w/2, h/2
	case document.TypeStar:
		outer := min(w, h) / 2
		if el.OuterRadius > 0 {
			el.InnerRadius *= outer / el.OuterRadius
		}
		el.OuterRadius = outer
	case document.TypeLine:
		b := el.LocalBounds()
		fx, fy := 1.0, 1.0
		if w0 > 0 {
			fx = w / w0
		}
		if h0 > 0 {
			fy = h / h0
		}
		for i := 0; i+1 < len(el.Points); i += 2 {
			el.Points[i] = b.X + (el.Points[i]-b.X)*fx
			el.Points[i+1] = b.Y + (el.Points[i+1]-b.Y)*fy
		}
	case document.TypeGroup:
		if el.Width > 0 {
			el.ScaleX = math.Copysign(w/el.Width, el.ScaleX)
		}
		if el.Height > 0 {
			el.ScaleY = math.Copysign(h/el.Height, el.ScaleY)
		}
	default:
		el.Width, el.Height = w, h
	}
}

// Rotate turns an element by degrees about the center of its box. The
// stored rotation is always wrapped into [0,360); with snapping on it is
// also rounded to RotationStep.
func Rotate(sc *scene.Scene, id string, degrees float64, grid geom.Grid) (*scene.Scene, error) {
	el, ok := sc.Get(id)
	if !ok {
		return sc, fmt.Errorf("%w: %s", scene.ErrNotFound, id)
	}
	if sc.LayerLocked(el.LayerIndex) {
		return sc, ErrLocked
	}
	if !geom.Finite(degrees) {
		return sc, fmt.Errorf("%w: non-finite angle", scene.ErrInvalidElement)
	}

	rot := grid.SnapAngle(el.Rotation+degrees, RotationStep)
	local := localCenter(el)
	pivot := el.Matrix().Apply(local)
	turned := geom.FromTransform(0, 0, el.ScaleX, el.ScaleY, rot).Apply(local)

	return sc.Edit(func(tx *scene.Tx) error {
		return tx.Mutate(id, func(el *document.Element) {
			el.Rotation = rot
			el.X = pivot.X - turned.X
			el.Y = pivot.Y - turned.Y
		})
	})
}

func localCenter(el document.Element) geom.Point {
	if el.Type == document.TypeGroup {
		return geom.Point{X: el.Width / 2, Y: el.Height / 2}
	}
	return el.LocalBounds().Center()
}
