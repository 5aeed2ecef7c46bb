package render

import (
	"encoding/json"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// DrawCommand is a single drawing operation for the canvas renderer.
// Transforms are [a, b, c, d, e, f] affine matrices in stage space; the
// renderer applies its own viewport on top.
type DrawCommand struct {
	Op          string          `json:"op"` // "background", "path", "image", "text"
	ObjectID    string          `json:"objectId,omitempty"`
	Transform   []float64       `json:"transform,omitempty"`
	Path        []PathCommand   `json:"path,omitempty"`
	Closed      bool            `json:"closed,omitempty"`
	Fill        string          `json:"fill,omitempty"`
	Stroke      string          `json:"stroke,omitempty"`
	StrokeWidth float64         `json:"strokeWidth,omitempty"`
	LineCap     string          `json:"lineCap,omitempty"`
	Opacity     float64         `json:"opacity"`
	Filter      document.Filter `json:"filter,omitempty"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Src string `json:"src,omitempty"`

	Text       string         `json:"text,omitempty"`
	FontFamily string         `json:"fontFamily,omitempty"`
	FontSize   float64        `json:"fontSize,omitempty"`
	FontStyle  string         `json:"fontStyle,omitempty"`
	Align      document.Align `json:"align,omitempty"`
}

// CompileDrawCommands flattens a graph into painter's order (back to
// front), starting with the card background.
func CompileDrawCommands(g *Graph) []DrawCommand {
	if g == nil {
		return nil
	}
	commands := []DrawCommand{{
		Op:      "background",
		Fill:    g.Background,
		Width:   g.Width,
		Height:  g.Height,
		Opacity: 1,
	}}
	for _, layer := range g.Layers {
		for _, n := range layer.Children {
			compileNode(n, &commands)
		}
	}
	return commands
}

func compileNode(n *Node, commands *[]DrawCommand) {
	if n == nil {
		return
	}
	base := DrawCommand{
		ObjectID:  n.ID,
		Transform: n.World.ToSlice(),
		Opacity:   n.Opacity,
		Filter:    n.Filter,
	}

	switch {
	case n.Type == document.TypeImage && n.Src != "":
		base.Op = "image"
		base.Src = n.Src
		base.Width = n.ImageWidth
		base.Height = n.ImageHeight
		*commands = append(*commands, base)
	case n.Type == document.TypeText:
		base.Op = "text"
		base.Text = n.Text
		base.FontFamily = n.FontFamily
		base.FontSize = n.FontSize
		base.FontStyle = n.FontStyle
		base.Align = n.Align
		base.Width = n.TextWidth
		base.Fill = n.Fill
		base.Stroke = n.Stroke
		base.StrokeWidth = n.StrokeWidth
		*commands = append(*commands, base)
	case len(n.Path) > 0:
		base.Op = "path"
		base.Path = n.Path
		base.Stroke = n.Stroke
		base.StrokeWidth = n.StrokeWidth
		if n.Type == document.TypeLine {
			base.LineCap = "round"
		} else {
			base.Closed = true
			base.Fill = n.Fill
		}
		*commands = append(*commands, base)
	}

	for _, child := range n.Children {
		compileNode(child, commands)
	}
}

// Compile builds and flattens sc in one step.
func Compile(sc *scene.Scene, cv Canvas) []DrawCommand {
	return CompileDrawCommands(Build(sc, cv))
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// SelectionBounds returns the combined stage-space box of the given ids.
// Ids missing from the graph are ignored.
func SelectionBounds(g *Graph, ids []string) geom.Rect {
	rects := make([]geom.Rect, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.ByID[id]; ok {
			rects = append(rects, n.Bounds)
		}
	}
	return geom.UnionAll(rects)
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return string(data)
}
