package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/layers"
	"github.com/cardstudio/cardstudio/internal/scene"
	"github.com/cardstudio/cardstudio/internal/transform"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	n := 0
	return New(Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func(prefix string) string {
			n++
			return fmt.Sprintf("%s_%d", prefix, n)
		},
	})
}

func rectAt(id string, x, y, w, h float64) document.Element {
	return document.Element{
		ID: id, Type: document.TypeRect,
		X: x, Y: y, Width: w, Height: h,
		ScaleX: 1, ScaleY: 1, Opacity: 1,
	}
}

func mustGet(t *testing.T, c *Controller, id string) document.Element {
	t.Helper()
	el, ok := c.Scene().Get(id)
	if !ok {
		t.Fatalf("%s missing", id)
	}
	return el
}

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func drag(c *Controller, from, to geom.Point, steps int) {
	c.PointerDown(from, Modifiers{})
	d := to.Sub(from)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		c.PointerMove(pt(from.X+d.X*f, from.Y+d.Y*f))
	}
	c.PointerUp(to)
}

func TestLoadDragUndoScenario(t *testing.T) {
	c := newController(t)
	doc := `{"width":800,"height":480,"layers":[{"id":"L1","visible":true,"locked":false}],"elements":[]}`
	if err := c.Load([]byte(doc)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cv := c.Canvas(); cv.Width != 800 || cv.Height != 480 {
		t.Fatalf("canvas = %+v", cv)
	}

	if _, ok := c.AddElement(rectAt("r", 10, 10, 100, 50)); !ok {
		t.Fatalf("AddElement refused")
	}
	drag(c, pt(20, 20), pt(25, 25), 1)

	got := mustGet(t, c, "r")
	if got.X != 15 || got.Y != 15 || got.Width != 100 || got.Height != 50 {
		t.Fatalf("after drag (%v,%v %vx%v)", got.X, got.Y, got.Width, got.Height)
	}

	if !c.Undo() {
		t.Fatalf("first undo refused")
	}
	got = mustGet(t, c, "r")
	if got.X != 10 || got.Y != 10 {
		t.Fatalf("after undo (%v,%v)", got.X, got.Y)
	}
	if !c.Undo() {
		t.Fatalf("second undo refused")
	}
	if c.Scene().Len() != 0 {
		t.Fatalf("scene not empty after second undo")
	}
	if c.Undo() {
		t.Fatalf("undo past the loaded design")
	}
	if len(c.Selection()) != 0 {
		t.Fatalf("selection kept a deleted element: %v", c.Selection())
	}
}

func TestGestureCommitsOnce(t *testing.T) {
	cases := []struct {
		name   string
		steps  int
		to     geom.Point
		commit bool
	}{
		{"many samples", 25, pt(60, 40), true},
		{"single sample", 1, pt(60, 40), true},
		{"click without move", 1, pt(20, 20), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctl := newController(t)
			ctl.AddElement(rectAt("r", 10, 10, 100, 50))
			before := ctl.HistoryLen()
			drag(ctl, pt(20, 20), c.to, c.steps)
			want := before
			if c.commit {
				want++
			}
			if ctl.HistoryLen() != want {
				t.Fatalf("history len = %d, want %d", ctl.HistoryLen(), want)
			}
			if ctl.Gesture() != GestureIdle {
				t.Fatalf("gesture = %v", ctl.Gesture())
			}
		})
	}
}

func TestEscapeCancelsDrag(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("r", 10, 10, 100, 50))
	before := c.HistoryLen()

	c.PointerDown(pt(20, 20), Modifiers{})
	c.PointerMove(pt(70, 90))
	if got := mustGet(t, c, "r"); got.X != 60 {
		t.Fatalf("live drag x = %v", got.X)
	}
	c.Escape()
	if got := mustGet(t, c, "r"); got.X != 10 || got.Y != 10 {
		t.Fatalf("escape left (%v,%v)", got.X, got.Y)
	}
	if c.HistoryLen() != before || c.Gesture() != GestureIdle {
		t.Fatalf("escape committed or stayed active")
	}
	if len(c.Selection()) != 1 {
		t.Fatalf("escape during a gesture should keep the selection")
	}
	c.Escape()
	if len(c.Selection()) != 0 {
		t.Fatalf("second escape should deselect")
	}
}

func TestSnappedDragAccumulates(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("r", 10, 10, 50, 50))
	c.ToggleSnap()

	c.PointerDown(pt(20, 20), Modifiers{})
	for i, want := range []float64{10, 20, 20, 20} {
		c.PointerMove(pt(20+3*float64(i+1), 20))
		if got := mustGet(t, c, "r"); got.X != want {
			t.Fatalf("after %d moves x = %v, want %v", i+1, got.X, want)
		}
	}
	c.PointerUp(pt(32, 20))
	if got := mustGet(t, c, "r"); got.X != 20 {
		t.Fatalf("final x = %v", got.X)
	}
}

func TestZoomedDragUsesStageDelta(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("r", 10, 10, 50, 50))
	c.ZoomAt(pt(0, 0), 2)
	drag(c, pt(40, 40), pt(60, 50), 2)
	if got := mustGet(t, c, "r"); got.X != 20 || got.Y != 15 {
		t.Fatalf("zoomed drag (%v,%v)", got.X, got.Y)
	}
}

func TestFreehandStroke(t *testing.T) {
	cases := []struct {
		name    string
		tool    Tool
		samples []geom.Point
		want    int
	}{
		{"single point discarded", ToolBrush, []geom.Point{pt(5, 5)}, 0},
		{"two points", ToolBrush, []geom.Point{pt(5, 5), pt(9, 9)}, 1},
		{"many samples", ToolEraser, []geom.Point{pt(5, 5), pt(6, 5), pt(7, 6), pt(9, 9), pt(12, 3)}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctl := newController(t)
			ctl.SetTool(c.tool)
			before := ctl.HistoryLen()
			ctl.PointerDown(c.samples[0], Modifiers{})
			for _, p := range c.samples[1:] {
				ctl.PointerMove(p)
			}
			ctl.PointerLeave()

			if ctl.Scene().Len() != c.want || ctl.HistoryLen() != before+c.want {
				t.Fatalf("elements %d history %d", ctl.Scene().Len(), ctl.HistoryLen()-before)
			}
			if c.want == 0 {
				return
			}
			el := ctl.Scene().Elements()[0]
			if el.Type != document.TypeLine || len(el.Points) != 2*len(c.samples) {
				t.Fatalf("stroke = %+v", el)
			}
			if c.tool == ToolEraser && el.Stroke != ctl.Canvas().Background {
				t.Fatalf("eraser stroke color = %q", el.Stroke)
			}
		})
	}
}

func TestDrawOnLockedLayerRefused(t *testing.T) {
	c := newController(t)
	c.ToggleLayerLock(0)
	c.SetTool(ToolBrush)
	c.PointerDown(pt(0, 0), Modifiers{})
	if c.Gesture() != GestureIdle {
		t.Fatalf("drawing started on a locked layer")
	}
}

func TestMalformedLoadFallsBack(t *testing.T) {
	for _, input := range []string{`{"width":`, `"just a string"`, `{"elements":[{"id":"a","type":"hexagon"}]}`} {
		c := newController(t)
		c.AddElement(rectAt("r", 0, 0, 10, 10))
		err := c.Load([]byte(input))
		if !errors.Is(err, document.ErrMalformed) {
			t.Fatalf("Load(%s) err = %v", input, err)
		}
		if c.LoadError() == nil || c.Scene().Len() != 0 || c.Scene().LayerCount() != 1 {
			t.Fatalf("fallback scene not empty default")
		}
		if cv := c.Canvas(); cv.Width != document.DefaultWidth || cv.Height != document.DefaultHeight {
			t.Fatalf("fallback canvas = %+v", cv)
		}
		if v := c.View(); v.LoadError == "" {
			t.Fatalf("view does not surface load error")
		}
	}
}

func TestLegacyArrayLoad(t *testing.T) {
	c := newController(t)
	err := c.Load([]byte(`[{"id":"a","type":"rect","x":1,"y":2,"width":3,"height":4,"layerIndex":3}]`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if el := mustGet(t, c, "a"); el.LayerIndex != 0 {
		t.Fatalf("legacy element on layer %d", el.LayerIndex)
	}
	if l, _ := c.Scene().Layer(0); l.Name != "Layer 1" || !l.Visible || l.Locked {
		t.Fatalf("default layer = %+v", l)
	}
}

func TestGroupUngroupThroughController(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 10, 10, 10, 10))
	c.AddElement(rectAt("b", 40, 30, 10, 10))
	c.SelectAll()

	gid, ok := c.Group()
	if !ok {
		t.Fatalf("Group refused")
	}
	if !slices.Equal(c.Selection(), []string{gid}) {
		t.Fatalf("selection after group = %v", c.Selection())
	}
	if !c.Ungroup() {
		t.Fatalf("Ungroup refused")
	}
	if !slices.Equal(c.Selection(), []string{"a", "b"}) {
		t.Fatalf("selection after ungroup = %v", c.Selection())
	}
	if a := mustGet(t, c, "a"); a.X != 10 || a.Y != 10 || a.GroupID != "" {
		t.Fatalf("a after ungroup = %+v", a)
	}
	if err := c.Scene().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestGroupPreconditionsDoNotCommit(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 10, 10, 10, 10))
	c.AddElement(rectAt("b", 40, 30, 10, 10))

	c.Select([]string{"a"})
	before := c.HistoryLen()
	if _, ok := c.Group(); ok {
		t.Fatalf("grouped a single element")
	}
	if c.Ungroup() {
		t.Fatalf("ungrouped a non-group")
	}
	if c.HistoryLen() != before {
		t.Fatalf("refused edits committed history")
	}

	c.SelectAll()
	c.ToggleLayerLock(0)
	before = c.HistoryLen()
	if _, ok := c.Group(); ok {
		t.Fatalf("grouped on a locked layer")
	}
	if c.HistoryLen() != before {
		t.Fatalf("refused group committed history")
	}
}

func TestLockPrunesSelection(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 0, 0, 10, 10))
	c.AddLayer()
	c.AddElement(rectAt("b", 0, 0, 10, 10))
	c.Select([]string{"a", "b"})

	c.ToggleLayerLock(1)
	if !slices.Equal(c.Selection(), []string{"a"}) {
		t.Fatalf("selection = %v", c.Selection())
	}
	c.ToggleLayerLock(1)
	c.Select([]string{"a", "b"})
	c.DeleteLayer(1)
	if !slices.Equal(c.Selection(), []string{"a"}) || c.ActiveLayer() != 0 {
		t.Fatalf("after delete selection %v active %d", c.Selection(), c.ActiveLayer())
	}
	if c.DeleteLayer(0) {
		t.Fatalf("deleted the last layer")
	}
}

func TestMoveLayerActiveFollows(t *testing.T) {
	c := newController(t)
	c.AddLayer()
	c.AddElement(rectAt("top", 0, 0, 10, 10))
	if c.ActiveLayer() != 1 {
		t.Fatalf("active = %d", c.ActiveLayer())
	}
	if !c.MoveLayer(1, layers.Down) {
		t.Fatalf("MoveLayer refused")
	}
	if c.ActiveLayer() != 0 || mustGet(t, c, "top").LayerIndex != 0 {
		t.Fatalf("active %d, element layer %d", c.ActiveLayer(), mustGet(t, c, "top").LayerIndex)
	}
}

func TestDuplicate(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 10, 10, 10, 10))
	c.AddElement(rectAt("b", 40, 30, 10, 10))
	c.Select([]string{"a", "b"})
	c.Group()
	c.AddElement(rectAt("solo", 100, 100, 5, 5))
	c.SelectAll()
	before := c.HistoryLen()

	copies := c.Duplicate()
	if len(copies) != 2 || c.HistoryLen() != before+1 {
		t.Fatalf("copies = %v, commits = %d", copies, c.HistoryLen()-before)
	}
	if !slices.Equal(c.Selection(), copies) {
		t.Fatalf("selection = %v", c.Selection())
	}
	if c.Scene().Len() != 8 {
		t.Fatalf("element count = %d", c.Scene().Len())
	}
	for _, id := range copies {
		el := mustGet(t, c, id)
		if el.Type == document.TypeGroup {
			if b := c.Scene().Bounds(id); b.X != 20 || b.Y != 20 {
				t.Fatalf("group copy bounds = %+v", b)
			}
			continue
		}
		if el.X != 110 || el.Y != 110 {
			t.Fatalf("solo copy at (%v,%v)", el.X, el.Y)
		}
	}
	if err := c.Scene().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestUpdateAndReorder(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 0, 0, 10, 10))
	c.AddElement(rectAt("b", 0, 0, 10, 10))

	fill := "Red"
	if !c.UpdateElement("a", scene.Patch{Fill: &fill}) {
		t.Fatalf("update refused")
	}
	if got := mustGet(t, c, "a").Fill; got != "#ff0000" {
		t.Fatalf("fill = %q", got)
	}
	if c.UpdateElement("ghost", scene.Patch{Fill: &fill}) {
		t.Fatalf("update of a missing element applied")
	}

	c.Select([]string{"a"})
	if !c.Reorder(scene.BringToFront) {
		t.Fatalf("reorder refused")
	}
	if order := c.Scene().RenderOrder(); !slices.Equal(order, []string{"b", "a"}) {
		t.Fatalf("order = %v", order)
	}
	if c.Reorder(scene.BringToFront) {
		t.Fatalf("already in front, should not commit")
	}
}

func TestResizeAndRotateGestures(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("r", 10, 10, 100, 50))

	if !c.StartResize(transform.BottomRight, pt(110, 60), false) {
		t.Fatalf("StartResize refused")
	}
	c.PointerMove(pt(130, 70))
	c.PointerUp(pt(130, 70))
	if r := mustGet(t, c, "r"); r.Width != 120 || r.Height != 60 {
		t.Fatalf("resized to %vx%v", r.Width, r.Height)
	}

	before := c.HistoryLen()
	if !c.StartRotate(pt(200, 40)) {
		t.Fatalf("StartRotate refused")
	}
	c.PointerMove(pt(70, 200))
	c.PointerUp(pt(70, 200))
	if r := mustGet(t, c, "r"); r.Rotation < 89.999 || r.Rotation > 90.001 {
		t.Fatalf("rotation = %v", r.Rotation)
	}
	if c.HistoryLen() != before+1 {
		t.Fatalf("rotate commits = %d", c.HistoryLen()-before)
	}
}

func TestMarqueeSelect(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 10, 10, 10, 10))
	c.AddElement(rectAt("b", 200, 200, 10, 10))
	c.ClearSelection()

	c.PointerDown(pt(0, 0), Modifiers{})
	c.PointerMove(pt(50, 50))
	if _, ok := c.Marquee(); !ok {
		t.Fatalf("no marquee during drag")
	}
	c.PointerUp(pt(50, 50))
	if !slices.Equal(c.Selection(), []string{"a"}) {
		t.Fatalf("marquee selected %v", c.Selection())
	}

	c.PointerDown(pt(300, 300), Modifiers{})
	c.PointerUp(pt(300, 300))
	if len(c.Selection()) != 0 {
		t.Fatalf("empty click kept selection %v", c.Selection())
	}
}

func TestShiftClickTogglesWithoutMoving(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 0, 0, 10, 10))
	c.AddElement(rectAt("b", 50, 0, 10, 10))
	c.Select([]string{"a"})
	c.PointerDown(pt(55, 5), Modifiers{Shift: true})
	c.PointerUp(pt(55, 5))
	if !slices.Equal(c.Selection(), []string{"a", "b"}) {
		t.Fatalf("selection = %v", c.Selection())
	}
	c.PointerDown(pt(5, 5), Modifiers{Shift: true})
	c.PointerUp(pt(5, 5))
	if !slices.Equal(c.Selection(), []string{"b"}) {
		t.Fatalf("selection = %v", c.Selection())
	}
}

func TestSetBackgroundUndoable(t *testing.T) {
	c := newController(t)
	if !c.SetBackground("navy") {
		t.Fatalf("SetBackground refused")
	}
	if c.Canvas().Background != "#000080" {
		t.Fatalf("background = %q", c.Canvas().Background)
	}
	c.Undo()
	if c.Canvas().Background != document.DefaultBackground {
		t.Fatalf("undo background = %q", c.Canvas().Background)
	}
	if c.SetBackground("not-a-color") {
		t.Fatalf("accepted unknown color")
	}
}

func TestLoadTemplate(t *testing.T) {
	c := newController(t)
	if err := c.LoadTemplate("classic"); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if c.Scene().Len() == 0 || c.CanUndo() || c.Dirty() {
		t.Fatalf("template load state wrong")
	}
	if err := c.LoadTemplate("nope"); !errors.Is(err, document.ErrUnknownTemplate) {
		t.Fatalf("unknown template err = %v", err)
	}
}

func TestViewJSONShape(t *testing.T) {
	c := newController(t)
	c.AddElement(rectAt("a", 0, 0, 10, 10))
	v := c.View()
	if len(v.Commands) != 2 || v.Bounds == nil || v.Tool != "select" || !v.Dirty {
		t.Fatalf("view = %+v", v)
	}
	if !strings.HasPrefix(v.Layers[0].ID, "layer_") {
		t.Fatalf("layer id = %q", v.Layers[0].ID)
	}
}
