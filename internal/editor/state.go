package editor

import (
	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/render"
)

// View is everything a client needs to repaint the editor after an event.
type View struct {
	Commands     []render.DrawCommand `json:"commands"`
	Selection    []string             `json:"selection"`
	Bounds       *geom.Rect           `json:"selectionBounds,omitempty"`
	Marquee      *geom.Rect           `json:"marquee,omitempty"`
	Stroke       []geom.Point         `json:"stroke,omitempty"`
	Layers       []document.Layer     `json:"layers"`
	ActiveLayer  int                  `json:"activeLayer"`
	Tool         string               `json:"tool"`
	Gesture      string               `json:"gesture"`
	Viewport     geom.Viewport        `json:"viewport"`
	Grid         geom.Grid            `json:"grid"`
	CanUndo      bool                 `json:"canUndo"`
	CanRedo      bool                 `json:"canRedo"`
	Dirty        bool                 `json:"dirty"`
	CardID       string               `json:"cardId,omitempty"`
	SaveStatus   string               `json:"saveStatus"`
	SaveError    string               `json:"saveError,omitempty"`
	LoadError    string               `json:"loadError,omitempty"`
	CanvasWidth  float64              `json:"canvasWidth"`
	CanvasHeight float64              `json:"canvasHeight"`
}

// View renders the live scene and collects the UI state.
func (c *Controller) View() View {
	graph := render.Build(c.live, c.committed.Canvas)
	v := View{
		Commands:     render.CompileDrawCommands(graph),
		Selection:    c.sel.IDs(),
		Layers:       c.live.Layers(),
		ActiveLayer:  c.activeLayer,
		Tool:         c.tool.String(),
		Gesture:      c.g.kind.String(),
		Viewport:     c.view,
		Grid:         c.grid,
		CanUndo:      c.CanUndo(),
		CanRedo:      c.CanRedo(),
		Dirty:        c.Dirty(),
		CardID:       c.save.cardID,
		SaveStatus:   c.save.status.String(),
		Stroke:       c.StrokePreview(),
		CanvasWidth:  c.committed.Canvas.Width,
		CanvasHeight: c.committed.Canvas.Height,
	}
	if !c.sel.Empty() {
		b := render.SelectionBounds(graph, v.Selection)
		v.Bounds = &b
	}
	if m, ok := c.Marquee(); ok {
		v.Marquee = &m
	}
	if c.save.err != nil {
		v.SaveError = c.save.err.Error()
	}
	if c.loadErr != nil {
		v.LoadError = c.loadErr.Error()
	}
	return v
}
