// Package editor orchestrates a single editing session: it turns pointer,
// keyboard and toolbar input into scene edits, decides when history is
// committed, and produces the design document for saving.
//
// A Controller is not safe for concurrent use. Callers run it from one
// event loop, the way a UI thread would.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/drawing"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/history"
	"github.com/cardstudio/cardstudio/internal/render"
	"github.com/cardstudio/cardstudio/internal/scene"
	"github.com/cardstudio/cardstudio/internal/selection"
	"github.com/cardstudio/cardstudio/internal/typeid"
)

// Tool is the active pointer mode.
type Tool int

const (
	ToolSelect Tool = iota
	ToolBrush
	ToolEraser
	ToolPan
)

var toolNames = []string{"select", "brush", "eraser", "pan"}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool accepts the names String produces.
func ParseTool(s string) (Tool, bool) {
	for i, name := range toolNames {
		if name == s {
			return Tool(i), true
		}
	}
	return 0, false
}

// Snapshot is one history entry: the scene plus the canvas settings that
// are saved with it.
type Snapshot struct {
	Scene  *scene.Scene
	Canvas render.Canvas
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	GridSize     float64
	Snap         bool
	HistoryLimit int
	Style        drawing.Style
	Logger       *slog.Logger
	// NewID generates ids for elements and layers. It defaults to typeids
	// with the given prefix.
	NewID func(prefix string) string
}

// DefaultGridSize is the snapping grid used when none is configured.
const DefaultGridSize = 10

// Controller owns the editing state of one design.
type Controller struct {
	log   *slog.Logger
	newID func(prefix string) string

	// committed is the history's current entry; live is what the canvas
	// shows, which differs from committed only during a gesture.
	committed Snapshot
	live      *scene.Scene
	history   *history.History[Snapshot]
	rev       int

	sel         selection.Selection
	tool        Tool
	activeLayer int
	view        geom.Viewport
	grid        geom.Grid
	style       drawing.Style

	g gestureState

	loadErr error
	save    saveState
}

// New returns a controller showing an empty default design.
func New(opts Options) *Controller {
	if opts.GridSize <= 0 {
		opts.GridSize = DefaultGridSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = typeid.New
	}
	if opts.Style == (drawing.Style{}) {
		opts.Style = drawing.DefaultStyle
	}
	c := &Controller{
		log:     opts.Logger,
		newID:   opts.NewID,
		history: history.New[Snapshot](opts.HistoryLimit),
		view:    geom.NewViewport(),
		grid:    geom.Grid{Size: opts.GridSize, Enabled: opts.Snap},
		style:   opts.Style,
	}
	c.reset(document.NewEmptyDocument(c.newID(typeid.PrefixLayer)))
	return c
}

// Load replaces the design with one decoded from data. On malformed input
// the controller falls back to an empty default design, records the error
// for LoadError and returns it.
func (c *Controller) Load(data []byte) error {
	doc, err := document.Load(data)
	if err == nil {
		err = c.reset(doc)
	}
	if err != nil {
		c.log.Warn("design failed to load, starting empty", "error", err)
		c.reset(document.NewEmptyDocument(c.newID(typeid.PrefixLayer)))
		c.loadErr = err
		return err
	}
	c.loadErr = nil
	return nil
}

// LoadTemplate replaces the design with a built-in template.
func (c *Controller) LoadTemplate(name string) error {
	doc, err := document.Template(name)
	if err != nil {
		return err
	}
	c.loadErr = nil
	return c.reset(doc)
}

// LoadError is the error from the last Load, if it fell back to the
// default design.
func (c *Controller) LoadError() error { return c.loadErr }

func (c *Controller) reset(doc *document.Document) error {
	sc, err := scene.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", document.ErrMalformed, err)
	}
	snap := Snapshot{
		Scene: sc,
		Canvas: render.Canvas{
			Width:      doc.Width,
			Height:     doc.Height,
			Background: doc.BackgroundColor,
		},
	}
	c.committed = snap
	c.live = sc
	c.history.Reset(snap)
	c.rev = 0
	c.save.savedRev = 0
	c.save.gen++
	c.save.status = SaveIdle
	c.save.err = nil
	c.sel.Clear()
	c.g = gestureState{}
	c.activeLayer = 0
	c.view = geom.NewViewport()
	return nil
}

// Scene is the scene as currently displayed, including any gesture in
// progress.
func (c *Controller) Scene() *scene.Scene { return c.live }

// Committed is the latest committed snapshot, which is what gets saved.
func (c *Controller) Committed() Snapshot { return c.committed }

func (c *Controller) Canvas() render.Canvas { return c.committed.Canvas }

func (c *Controller) Selection() []string { return c.sel.IDs() }

func (c *Controller) Tool() Tool { return c.tool }

func (c *Controller) ActiveLayer() int { return c.activeLayer }

func (c *Controller) Viewport() geom.Viewport { return c.view }

func (c *Controller) Grid() geom.Grid { return c.grid }

func (c *Controller) CanUndo() bool { return c.history.CanUndo() }

func (c *Controller) CanRedo() bool { return c.history.CanRedo() }

// HistoryLen is the number of stored snapshots.
func (c *Controller) HistoryLen() int { return c.history.Len() }

// Dirty reports whether committed changes have not been saved yet.
func (c *Controller) Dirty() bool { return c.rev != c.save.savedRev }

// apply makes next the committed state in one step. A nil or unchanged
// scene commits nothing.
func (c *Controller) apply(label string, next *scene.Scene) bool {
	if next == nil || next == c.committed.Scene {
		return false
	}
	c.live = next
	c.commit(label)
	return true
}

// commit records the live scene as a new history entry.
func (c *Controller) commit(label string) {
	c.committed = Snapshot{Scene: c.live, Canvas: c.committed.Canvas}
	c.history.Commit(c.committed)
	c.rev++
	c.afterChange()
	c.log.Debug("committed", "action", label, "history", c.history.Len(), "cursor", c.history.Cursor())
}

// reject logs a gesture that did not apply. Invariant violations are not
// user-facing errors.
func (c *Controller) reject(action string, err error) bool {
	c.log.Debug("edit rejected", "action", action, "error", err)
	return false
}

func (c *Controller) afterChange() {
	c.sel.Prune(c.live)
	if c.activeLayer >= c.live.LayerCount() {
		c.activeLayer = c.live.LayerCount() - 1
	}
}

func (c *Controller) restore(snap Snapshot) {
	c.cancelGesture()
	c.committed = snap
	c.live = snap.Scene
	c.rev++
	c.afterChange()
}

// Undo steps back one committed action. Any gesture in progress is
// discarded first.
func (c *Controller) Undo() bool {
	snap, ok := c.history.Undo()
	if !ok {
		return false
	}
	c.restore(snap)
	return true
}

// Redo re-applies the next undone action.
func (c *Controller) Redo() bool {
	snap, ok := c.history.Redo()
	if !ok {
		return false
	}
	c.restore(snap)
	return true
}

// SetTool switches the pointer mode, abandoning any gesture in progress.
func (c *Controller) SetTool(t Tool) {
	if t < ToolSelect || t > ToolPan {
		return
	}
	c.cancelGesture()
	c.tool = t
}

// SetActiveLayer picks the layer new elements and strokes go to.
func (c *Controller) SetActiveLayer(index int) bool {
	if index < 0 || index >= c.live.LayerCount() {
		return false
	}
	c.activeLayer = index
	return true
}

// ToggleSnap flips grid snapping and reports the new state.
func (c *Controller) ToggleSnap() bool {
	c.grid.Enabled = !c.grid.Enabled
	return c.grid.Enabled
}

func (c *Controller) SetGridSize(size float64) bool {
	if size <= 0 || !geom.Finite(size) {
		return false
	}
	c.grid.Size = size
	return true
}

func (c *Controller) SetStyle(s drawing.Style) { c.style = s }

// ZoomAt zooms by factor keeping the screen point anchor fixed.
func (c *Controller) ZoomAt(anchor geom.Point, factor float64) {
	c.view = c.view.ZoomAt(anchor, factor)
}

// PanBy scrolls the canvas by a screen-space delta.
func (c *Controller) PanBy(d geom.Point) { c.view = c.view.PanBy(d) }

// ResetView restores 100% zoom with no pan.
func (c *Controller) ResetView() { c.view = geom.NewViewport() }

// SetBackground changes the card background color as one undoable step.
func (c *Controller) SetBackground(color string) bool {
	norm, ok := document.NormalizeColor(color)
	if !ok {
		return c.reject("background", fmt.Errorf("unknown color %q", color))
	}
	if norm == c.committed.Canvas.Background {
		return false
	}
	c.cancelGesture()
	cv := c.committed.Canvas
	cv.Background = norm
	c.committed.Canvas = cv
	c.commit("background")
	return true
}

var errActiveLayerLocked = errors.New("active layer is locked")

func (c *Controller) activeLayerLocked() bool {
	return c.live.LayerLocked(c.activeLayer)
}

// ensureIdle discards an uncommitted gesture before a discrete action, so
// that an action never builds on a half-finished drag.
func (c *Controller) ensureIdle() {
	if c.g.kind != GestureIdle {
		c.cancelGesture()
	}
}
