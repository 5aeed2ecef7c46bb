package scene

import "github.com/cardstudio/cardstudio/internal/document"

// Patch is a partial element update; nil fields are left alone. Identity,
// type, layer and group membership are not patchable.
type Patch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	RadiusX     *float64 `json:"radiusX,omitempty"`
	RadiusY     *float64 `json:"radiusY,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	ScaleX      *float64 `json:"scaleX,omitempty"`
	ScaleY      *float64 `json:"scaleY,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`

	Text         *string         `json:"text,omitempty"`
	FontFamily   *string         `json:"fontFamily,omitempty"`
	FontSize     *float64        `json:"fontSize,omitempty"`
	FontStyle    *string         `json:"fontStyle,omitempty"`
	Align        *document.Align `json:"align,omitempty"`
	CornerRadius *float64        `json:"cornerRadius,omitempty"`

	Src           *string  `json:"src,omitempty"`
	NaturalWidth  *float64 `json:"naturalWidth,omitempty"`
	NaturalHeight *float64 `json:"naturalHeight,omitempty"`

	NumPoints   *int     `json:"numPoints,omitempty"`
	InnerRadius *float64 `json:"innerRadius,omitempty"`
	OuterRadius *float64 `json:"outerRadius,omitempty"`

	Filter *document.Filter `json:"filter,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply writes the non-nil fields onto el. Colors are canonicalized; an
// unrecognized color is stored as given.
func (p Patch) Apply(el *document.Element) {
	setF := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setS := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&el.X, p.X)
	setF(&el.Y, p.Y)
	setF(&el.Width, p.Width)
	setF(&el.Height, p.Height)
	setF(&el.RadiusX, p.RadiusX)
	setF(&el.RadiusY, p.RadiusY)
	setF(&el.Rotation, p.Rotation)
	setF(&el.ScaleX, p.ScaleX)
	setF(&el.ScaleY, p.ScaleY)
	setF(&el.Opacity, p.Opacity)
	setF(&el.StrokeWidth, p.StrokeWidth)
	setF(&el.FontSize, p.FontSize)
	setF(&el.CornerRadius, p.CornerRadius)
	setF(&el.NaturalWidth, p.NaturalWidth)
	setF(&el.NaturalHeight, p.NaturalHeight)
	setF(&el.InnerRadius, p.InnerRadius)
	setF(&el.OuterRadius, p.OuterRadius)
	setS(&el.Text, p.Text)
	setS(&el.FontFamily, p.FontFamily)
	setS(&el.FontStyle, p.FontStyle)
	setS(&el.Src, p.Src)
	if p.Fill != nil {
		el.Fill, _ = document.NormalizeColor(*p.Fill)
	}
	if p.Stroke != nil {
		el.Stroke, _ = document.NormalizeColor(*p.Stroke)
	}
	if p.Align != nil {
		el.Align = *p.Align
	}
	if p.NumPoints != nil {
		el.NumPoints = *p.NumPoints
	}
	if p.Filter != nil {
		el.Filter = *p.Filter
	}
}
