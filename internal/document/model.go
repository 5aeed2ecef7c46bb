package document

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cardstudio/cardstudio/internal/geom"
)

const (
	DefaultWidth      = 500
	DefaultHeight     = 300
	DefaultBackground = "#ffffff"
)

// Document is the persisted card design: the editor's load and save payload.
type Document struct {
	Width           float64   `json:"width"`
	Height          float64   `json:"height"`
	BackgroundColor string    `json:"backgroundColor"`
	Layers          []Layer   `json:"layers"`
	Elements        []Element `json:"elements"`
}

type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

// UnmarshalJSON treats a layer stored without "visible" as shown.
func (l *Layer) UnmarshalJSON(data []byte) error {
	type plain Layer
	l.Visible = true
	return json.Unmarshal(data, (*plain)(l))
}

type ElementType string

const (
	TypeRect    ElementType = "rect"
	TypeEllipse ElementType = "ellipse"
	TypeText    ElementType = "text"
	TypeImage   ElementType = "image"
	TypeStar    ElementType = "star"
	TypeLine    ElementType = "line"
	TypeGroup   ElementType = "group"
)

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case TypeRect, TypeEllipse, TypeText, TypeImage, TypeStar, TypeLine, TypeGroup:
		return true
	}
	return false
}

// Filter names a per-element effect. The editor only stores it; applying
// it to pixels is the renderer's job.
type Filter string

const (
	FilterNone      Filter = ""
	FilterGrayscale Filter = "grayscale"
	FilterSepia     Filter = "sepia"
	FilterBlur      Filter = "blur"
	FilterInvert    Filter = "invert"
	FilterBrighten  Filter = "brighten"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterNone, FilterGrayscale, FilterSepia, FilterBlur, FilterInvert, FilterBrighten:
		return true
	}
	return false
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Element is a single visual primitive. X and Y are in stage space for
// top-level elements and relative to the owning group's origin for grouped
// ones. Rect, text, image and group elements extend from (X, Y) by
// Width x Height; ellipses and stars are centered on (X, Y); line points are
// flat x,y pairs relative to (X, Y).
type Element struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width,omitempty"`
	Height      float64     `json:"height,omitempty"`
	RadiusX     float64     `json:"radiusX,omitempty"`
	RadiusY     float64     `json:"radiusY,omitempty"`
	Rotation    float64     `json:"rotation"`
	ScaleX      float64     `json:"scaleX"`
	ScaleY      float64     `json:"scaleY"`
	Opacity     float64     `json:"opacity"`
	Fill        string      `json:"fill,omitempty"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	LayerIndex  int         `json:"layerIndex"`
	Filter      Filter      `json:"filter,omitempty"`

	// Group membership. GroupID is a lookup-only back-reference; the group's
	// Children list owns membership.
	GroupID  string   `json:"groupId,omitempty"`
	Children []string `json:"children,omitempty"`

	// Text
	Text         string  `json:"text,omitempty"`
	FontFamily   string  `json:"fontFamily,omitempty"`
	FontSize     float64 `json:"fontSize,omitempty"`
	FontStyle    string  `json:"fontStyle,omitempty"`
	Align        Align   `json:"align,omitempty"`
	CornerRadius float64 `json:"cornerRadius,omitempty"`

	// Image
	Src           string  `json:"src,omitempty"`
	NaturalWidth  float64 `json:"naturalWidth,omitempty"`
	NaturalHeight float64 `json:"naturalHeight,omitempty"`

	// Star
	NumPoints   int     `json:"numPoints,omitempty"`
	InnerRadius float64 `json:"innerRadius,omitempty"`
	OuterRadius float64 `json:"outerRadius,omitempty"`

	// Line
	Points []float64 `json:"points,omitempty"`
}

// UnmarshalJSON fills in the defaults a missing field implies: fully
// opaque and unscaled. Legacy "circle" (with "radius") and "polyline"
// types are mapped onto ellipse and line.
func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	aux := struct {
		*plain
		Radius *float64 `json:"radius,omitempty"`
	}{plain: (*plain)(e)}
	e.Opacity = 1
	e.ScaleX = 1
	e.ScaleY = 1
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch e.Type {
	case "circle":
		e.Type = TypeEllipse
	case "polyline", "brush":
		e.Type = TypeLine
	}
	if aux.Radius != nil && e.Type == TypeEllipse && e.RadiusX == 0 && e.RadiusY == 0 {
		e.RadiusX, e.RadiusY = *aux.Radius, *aux.Radius
	}
	return nil
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	e.Children = slices.Clone(e.Children)
	e.Points = slices.Clone(e.Points)
	return e
}

// Normalize clamps opacity into [0,1], wraps rotation into [0,360) and
// replaces degenerate scale factors.
func (e *Element) Normalize() {
	e.Opacity = geom.Clamp(e.Opacity, 0, 1)
	e.Rotation = geom.NormalizeDegrees(e.Rotation)
	if e.ScaleX == 0 {
		e.ScaleX = 1
	}
	if e.ScaleY == 0 {
		e.ScaleY = 1
	}
	if e.Type == TypeStar && e.NumPoints < 2 {
		e.NumPoints = 5
	}
}

// Check verifies the fields a scene relies on. It does not look at layers
// or group membership; the scene does that.
func (e Element) Check() error {
	if e.ID == "" {
		return fmt.Errorf("element has no id")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("element %s: unknown type %q", e.ID, e.Type)
	}
	if !e.Filter.Valid() {
		return fmt.Errorf("element %s: unknown filter %q", e.ID, e.Filter)
	}
	nums := []float64{
		e.X, e.Y, e.Width, e.Height, e.RadiusX, e.RadiusY, e.Rotation,
		e.ScaleX, e.ScaleY, e.Opacity, e.StrokeWidth, e.FontSize,
		e.InnerRadius, e.OuterRadius, e.NaturalWidth, e.NaturalHeight, e.CornerRadius,
	}
	if !geom.Finite(nums...) || !geom.Finite(e.Points...) {
		return fmt.Errorf("element %s: non-finite geometry", e.ID)
	}
	if e.Opacity < 0 || e.Opacity > 1 {
		return fmt.Errorf("element %s: opacity %v out of range", e.ID, e.Opacity)
	}
	if e.Rotation < 0 || e.Rotation >= 360 {
		return fmt.Errorf("element %s: rotation %v not normalized", e.ID, e.Rotation)
	}
	if len(e.Points)%2 != 0 {
		return fmt.Errorf("element %s: odd point list", e.ID)
	}
	if e.Type != TypeGroup && len(e.Children) > 0 {
		return fmt.Errorf("element %s: only groups have children", e.ID)
	}
	return nil
}

// LocalBounds is the element's extent in its own coordinate space, before
// rotation and scale. Groups report their creation-time box.
func (e Element) LocalBounds() geom.Rect {
	switch e.Type {
	case TypeEllipse:
		return geom.Rect{X: -e.RadiusX, Y: -e.RadiusY, Width: 2 * e.RadiusX, Height: 2 * e.RadiusY}
	case TypeStar:
		r := max(e.OuterRadius, e.InnerRadius)
		return geom.Rect{X: -r, Y: -r, Width: 2 * r, Height: 2 * r}
	case TypeLine:
		pts := make([]geom.Point, 0, len(e.Points)/2)
		for i := 0; i+1 < len(e.Points); i += 2 {
			pts = append(pts, geom.Point{X: e.Points[i], Y: e.Points[i+1]})
		}
		return geom.BoundsOf(pts).Normalize()
	default:
		return geom.Rect{Width: e.Width, Height: e.Height}.Normalize()
	}
}

// Matrix is the element's local-to-parent transform.
func (e Element) Matrix() geom.Matrix2D {
	return geom.FromTransform(e.X, e.Y, e.ScaleX, e.ScaleY, e.Rotation)
}

// NewEmptyDocument creates a blank design with one visible, unlocked layer.
func NewEmptyDocument(layerID string) *Document {
	return &Document{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		BackgroundColor: DefaultBackground,
		Layers:          []Layer{DefaultLayer(layerID, 0)},
		Elements:        []Element{},
	}
}

// DefaultLayer returns a visible, unlocked layer named after its position.
func DefaultLayer(id string, index int) Layer {
	return Layer{ID: id, Name: LayerName(index), Visible: true}
}

// LayerName is the default display name for the layer at index.
func LayerName(index int) string {
	return fmt.Sprintf("Layer %d", index+1)
}
