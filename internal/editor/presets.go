package editor

import (
	"fmt"
	"math"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
)

// Preset returns a new element of the given type with toolbar defaults,
// centered on the stage point at. Image elements need a source and are
// created with Image instead.
func Preset(typ document.ElementType, at geom.Point) (document.Element, error) {
	el := document.Element{
		Type:    typ,
		ScaleX:  1,
		ScaleY:  1,
		Opacity: 1,
	}
	switch typ {
	case document.TypeRect:
		el.Width, el.Height = 120, 60
		el.X, el.Y = at.X-el.Width/2, at.Y-el.Height/2
		el.Fill = "#3b82f6"
	case document.TypeEllipse:
		el.RadiusX, el.RadiusY = 50, 50
		el.X, el.Y = at.X, at.Y
		el.Fill = "#10b981"
	case document.TypeStar:
		el.NumPoints, el.InnerRadius, el.OuterRadius = 5, 20, 40
		el.X, el.Y = at.X, at.Y
		el.Fill = "#f59e0b"
	case document.TypeText:
		el.Text = "Your Name"
		el.FontFamily = "Arial"
		el.FontSize = 24
		el.Align = document.AlignLeft
		el.Width, el.Height = 200, 30
		el.X, el.Y = at.X-el.Width/2, at.Y-el.Height/2
		el.Fill = "#111827"
	case document.TypeLine:
		el.Points = []float64{0, 0, 100, 0}
		el.X, el.Y = at.X-50, at.Y
		el.Stroke = "#111827"
		el.StrokeWidth = 2
	default:
		return document.Element{}, fmt.Errorf("no preset for %q", typ)
	}
	return el, nil
}

// Image returns an image element for an already uploaded source, scaled
// to fit within maxW by maxH and centered on at.
func Image(src string, naturalW, naturalH float64, at geom.Point, maxW, maxH float64) (document.Element, error) {
	if src == "" {
		return document.Element{}, fmt.Errorf("image source is empty")
	}
	if naturalW <= 0 || naturalH <= 0 || !geom.Finite(naturalW, naturalH) {
		return document.Element{}, fmt.Errorf("image size %vx%v is invalid", naturalW, naturalH)
	}
	scale := 1.0
	if maxW > 0 && maxH > 0 {
		scale = math.Min(1, math.Min(maxW/naturalW, maxH/naturalH))
	}
	w, h := naturalW*scale, naturalH*scale
	return document.Element{
		Type:          document.TypeImage,
		X:             at.X - w/2,
		Y:             at.Y - h/2,
		Width:         w,
		Height:        h,
		Src:           src,
		NaturalWidth:  naturalW,
		NaturalHeight: naturalH,
		ScaleX:        1,
		ScaleY:        1,
		Opacity:       1,
	}, nil
}
