// Package render turns a scene into the flat, painter's-order command list
// the canvas renderer executes. The renderer itself is external; this
// package only decides what gets drawn, where, and in which order.
package render

import (
	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// Graph is the render-ready form of a scene: one node per visible layer,
// holding that layer's elements in paint order with world transforms and
// inherited opacity resolved.
type Graph struct {
	Width      float64
	Height     float64
	Background string
	Layers     []*Node
	ByID       map[string]*Node
}

// Node is a resolved element.
type Node struct {
	ID    string
	Type  document.ElementType
	World geom.Matrix2D

	Opacity     float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Filter      document.Filter

	Path []PathCommand

	Src         string
	ImageWidth  float64
	ImageHeight float64

	Text       string
	FontFamily string
	FontSize   float64
	FontStyle  string
	Align      document.Align
	TextWidth  float64

	Children []*Node
	// Bounds is the axis-aligned stage-space box, children included.
	Bounds geom.Rect
}

// Canvas is the document-level paint information that is not part of the
// scene.
type Canvas struct {
	Width      float64
	Height     float64
	Background string
}

// Build resolves sc into a Graph. Hidden layers are left out entirely.
func Build(sc *scene.Scene, cv Canvas) *Graph {
	g := &Graph{
		Width:      cv.Width,
		Height:     cv.Height,
		Background: cv.Background,
		ByID:       make(map[string]*Node),
	}
	byLayer := make(map[int]*Node)
	for i := 0; i < sc.LayerCount(); i++ {
		if !sc.LayerVisible(i) {
			continue
		}
		l, _ := sc.Layer(i)
		node := &Node{ID: l.ID, Opacity: 1, World: geom.Identity()}
		byLayer[i] = node
		g.Layers = append(g.Layers, node)
	}

	for _, id := range sc.RenderOrder() {
		el, _ := sc.Get(id)
		parent, ok := byLayer[el.LayerIndex]
		if !ok {
			continue
		}
		node := buildNode(sc, el, geom.Identity(), 1, g)
		parent.Children = append(parent.Children, node)
		parent.Bounds = parent.Bounds.Union(node.Bounds)
	}
	return g
}

func buildNode(sc *scene.Scene, el document.Element, parentWorld geom.Matrix2D, parentOpacity float64, g *Graph) *Node {
	world := parentWorld.Multiply(el.Matrix())
	node := &Node{
		ID:          el.ID,
		Type:        el.Type,
		World:       world,
		Opacity:     parentOpacity * el.Opacity,
		Fill:        el.Fill,
		Stroke:      el.Stroke,
		StrokeWidth: el.StrokeWidth,
		Filter:      el.Filter,
	}

	switch el.Type {
	case document.TypeRect:
		node.Path = rectPath(el.Width, el.Height, el.CornerRadius)
	case document.TypeEllipse:
		node.Path = ellipsePath(el.RadiusX, el.RadiusY)
	case document.TypeStar:
		node.Path = starPath(el.NumPoints, el.InnerRadius, el.OuterRadius)
	case document.TypeLine:
		node.Path = linePath(el.Points)
	case document.TypeImage:
		node.Src = el.Src
		node.ImageWidth = el.Width
		node.ImageHeight = el.Height
	case document.TypeText:
		node.Text = el.Text
		node.FontFamily = el.FontFamily
		node.FontSize = el.FontSize
		node.FontStyle = el.FontStyle
		node.Align = el.Align
		node.TextWidth = el.Width
	}

	if el.Type == document.TypeGroup {
		for _, cid := range el.Children {
			child, ok := sc.Get(cid)
			if !ok {
				continue
			}
			cn := buildNode(sc, child, world, node.Opacity, g)
			node.Children = append(node.Children, cn)
			node.Bounds = node.Bounds.Union(cn.Bounds)
		}
	} else {
		node.Bounds = world.TransformRect(el.LocalBounds())
		if el.Type == document.TypeLine {
			node.Bounds = node.Bounds.Inset(-el.StrokeWidth / 2)
		}
	}

	g.ByID[el.ID] = node
	return node
}
