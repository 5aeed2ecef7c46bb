package editor

import (
	"fmt"

	"github.com/cardstudio/cardstudio/internal/drawing"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/selection"
	"github.com/cardstudio/cardstudio/internal/transform"
	"github.com/cardstudio/cardstudio/internal/typeid"
)

// Gesture is the state of the pointer state machine.
type Gesture int

const (
	GestureIdle Gesture = iota
	GestureDragging
	GestureResizing
	GestureRotating
	GestureDrawing
	GesturePanning
	GestureMarquee
)

var gestureNames = []string{"idle", "dragging", "resizing", "rotating", "drawing", "panning", "marquee"}

func (g Gesture) String() string {
	if g >= 0 && int(g) < len(gestureNames) {
		return gestureNames[g]
	}
	return fmt.Sprintf("Gesture(%d)", int(g))
}

// marqueeMinSize keeps a plain click on empty canvas from selecting
// whatever box it lands in.
const marqueeMinSize = 2.0

// Modifiers are the keys held during a pointer event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
	Ctrl  bool `json:"ctrl"`
}

type gestureState struct {
	kind     Gesture
	last     geom.Point // previous pointer position, screen space
	press    geom.Point // gesture start, stage space
	additive bool

	drag    *transform.DragSession
	resize  *transform.ResizeSession
	rotate  *transform.RotateSession
	draw    drawing.Machine
	marquee geom.Rect
}

// Gesture reports the pointer state.
func (c *Controller) Gesture() Gesture { return c.g.kind }

// Marquee is the selection rectangle being dragged, in stage space.
func (c *Controller) Marquee() (geom.Rect, bool) {
	if c.g.kind != GestureMarquee {
		return geom.Rect{}, false
	}
	return c.g.marquee.Normalize(), true
}

// StrokePreview returns the freehand points recorded so far.
func (c *Controller) StrokePreview() []geom.Point {
	if c.g.kind != GestureDrawing {
		return nil
	}
	return c.g.draw.Points()
}

// PointerDown starts a gesture at a screen-space point according to the
// active tool.
func (c *Controller) PointerDown(p geom.Point, mods Modifiers) {
	c.ensureIdle()
	stage := c.view.ScreenToStage(p)
	c.g.last = p
	c.g.press = stage
	c.g.additive = mods.Shift

	switch c.tool {
	case ToolPan:
		c.g.kind = GesturePanning
	case ToolBrush, ToolEraser:
		if c.activeLayerLocked() {
			c.reject("draw", errActiveLayerLocked)
			return
		}
		tool := drawing.Brush
		if c.tool == ToolEraser {
			tool = drawing.Eraser
		}
		style := c.style
		style.Background = c.committed.Canvas.Background
		if c.g.draw.Begin(tool, style, c.activeLayer, stage) {
			c.g.kind = GestureDrawing
		}
	default:
		c.selectDown(stage, mods)
	}
}

func (c *Controller) selectDown(stage geom.Point, mods Modifiers) {
	id, hit := selection.HitTest(c.live, stage)
	if !hit {
		if !mods.Shift {
			c.sel.Clear()
		}
		c.g.kind = GestureMarquee
		c.g.marquee = geom.Rect{X: stage.X, Y: stage.Y}
		return
	}
	switch {
	case mods.Shift:
		c.sel.Toggle(c.live, id, true)
	case !c.sel.Contains(id):
		c.sel.Toggle(c.live, id, false)
	}
	if c.sel.Empty() || !c.sel.Contains(id) {
		return
	}
	c.g.kind = GestureDragging
	c.g.drag = transform.BeginDrag(c.live, c.sel.IDs(), c.grid)
}

// StartResize begins resizing the primary selected element by one of its
// handles, with the pointer at a screen-space point.
func (c *Controller) StartResize(handle transform.Anchor, p geom.Point, keepRatio bool) bool {
	c.ensureIdle()
	id, ok := c.sel.Primary()
	if !ok {
		return false
	}
	rs, err := transform.BeginResize(c.live, id, handle, keepRatio, c.grid)
	if err != nil {
		return c.reject("resize", err)
	}
	c.g.kind = GestureResizing
	c.g.resize = rs
	c.g.last = p
	return true
}

// StartRotate begins rotating the primary selected element, with the
// pointer at a screen-space point.
func (c *Controller) StartRotate(p geom.Point) bool {
	c.ensureIdle()
	id, ok := c.sel.Primary()
	if !ok {
		return false
	}
	rs, err := transform.BeginRotate(c.live, id, c.view.ScreenToStage(p), c.grid)
	if err != nil {
		return c.reject("rotate", err)
	}
	c.g.kind = GestureRotating
	c.g.rotate = rs
	c.g.last = p
	return true
}

// PointerMove feeds one pointer sample to the active gesture. Nothing is
// committed until the gesture ends.
func (c *Controller) PointerMove(p geom.Point) {
	delta := c.view.ScreenDeltaToStage(p.Sub(c.g.last))
	screenDelta := p.Sub(c.g.last)
	c.g.last = p

	switch c.g.kind {
	case GestureDragging:
		if next, err := c.g.drag.Move(delta.X, delta.Y); err == nil {
			c.live = next
		}
	case GestureResizing:
		if next, err := c.g.resize.Move(delta.X, delta.Y); err == nil {
			c.live = next
		}
	case GestureRotating:
		if next, err := c.g.rotate.Move(c.view.ScreenToStage(p)); err == nil {
			c.live = next
		}
	case GestureDrawing:
		c.g.draw.Move(c.view.ScreenToStage(p))
	case GesturePanning:
		c.view = c.view.PanBy(screenDelta)
	case GestureMarquee:
		stage := c.view.ScreenToStage(p)
		c.g.marquee.Width = stage.X - c.g.marquee.X
		c.g.marquee.Height = stage.Y - c.g.marquee.Y
	}
}

// PointerUp ends the active gesture, committing at most one history entry.
func (c *Controller) PointerUp(p geom.Point) {
	if c.g.kind != GestureIdle && p != c.g.last {
		c.PointerMove(p)
	}
	c.finishGesture()
}

// PointerLeave ends the gesture as if the pointer was released where it
// was last seen.
func (c *Controller) PointerLeave() {
	c.finishGesture()
}

func (c *Controller) finishGesture() {
	g := c.g.kind
	switch g {
	case GestureDragging:
		c.commitGesture("move")
	case GestureResizing:
		c.commitGesture("resize")
	case GestureRotating:
		c.commitGesture("rotate")
	case GestureDrawing:
		el, ok := c.g.draw.End(c.newID(typeid.PrefixElement))
		if ok {
			if next, err := c.live.AddElement(el); err == nil {
				c.live = next
				c.commit("draw")
			} else {
				c.reject("draw", err)
			}
		}
	case GestureMarquee:
		r := c.g.marquee.Normalize()
		if r.Width < marqueeMinSize && r.Height < marqueeMinSize {
			break
		}
		ids := selection.InRect(c.live, r)
		if c.g.additive {
			ids = append(c.sel.IDs(), ids...)
		}
		c.sel.Set(c.live, ids)
	}
	c.g = gestureState{}
}

func (c *Controller) commitGesture(label string) {
	if c.live == c.committed.Scene {
		return
	}
	c.commit(label)
}

// cancelGesture drops any uncommitted change and returns to idle.
func (c *Controller) cancelGesture() {
	c.g.draw.Cancel()
	c.live = c.committed.Scene
	c.g = gestureState{}
}

// Escape cancels a gesture in progress, or clears the selection when idle.
func (c *Controller) Escape() {
	if c.g.kind != GestureIdle {
		c.cancelGesture()
		return
	}
	c.sel.Clear()
}
