// Package thumbnail rasterizes a design into a small PNG preview for card
// listings. It paints the same draw commands the canvas renderer gets, so
// a thumbnail matches the editor up to font and filter differences.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/f64"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/render"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// DefaultMaxWidth is the thumbnail width used when none is requested.
const DefaultMaxWidth = 320

// placeholder paints images whose pixels are not embedded in the design.
const placeholder = "#e5e7eb"

var ErrEmptyCanvas = errors.New("canvas has no area")

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

// Render paints sc at a scale that fits maxWidth pixels. Designs narrower
// than maxWidth are painted at their own size.
func Render(sc *scene.Scene, cv render.Canvas, maxWidth int) (image.Image, error) {
	dc, err := draw2D(sc, cv, maxWidth)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// PNG writes a thumbnail of doc to w.
func PNG(w io.Writer, doc *document.Document, maxWidth int) error {
	sc, err := scene.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	dc, err := draw2D(sc, render.Canvas{Width: doc.Width, Height: doc.Height, Background: doc.BackgroundColor}, maxWidth)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func draw2D(sc *scene.Scene, cv render.Canvas, maxWidth int) (*gg.Context, error) {
	if cv.Width <= 0 || cv.Height <= 0 {
		return nil, ErrEmptyCanvas
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	s := math.Min(1, float64(maxWidth)/cv.Width)
	w := max(1, int(math.Round(cv.Width*s)))
	h := max(1, int(math.Round(cv.Height*s)))

	dc := gg.NewContext(w, h)
	p := painter{dc: dc, view: geom.Scale(s, s)}
	for _, cmd := range render.Compile(sc, cv) {
		if err := p.paint(cmd); err != nil {
			return nil, fmt.Errorf("paint %s %s: %w", cmd.Op, cmd.ObjectID, err)
		}
	}
	return dc, nil
}

type painter struct {
	dc   *gg.Context
	view geom.Matrix2D
}

func (p painter) paint(cmd render.DrawCommand) error {
	switch cmd.Op {
	case "background":
		p.dc.SetColor(color.White)
		if c, ok := paint(cmd.Fill, 1); ok {
			p.dc.SetColor(c)
		}
		p.dc.Clear()
	case "path":
		p.path(cmd)
	case "text":
		return p.text(cmd)
	case "image":
		p.image(cmd)
	}
	return nil
}

func (p painter) matrix(cmd render.DrawCommand) geom.Matrix2D {
	var m geom.Matrix2D
	if len(cmd.Transform) != len(m) {
		return p.view
	}
	copy(m[:], cmd.Transform)
	return p.view.Multiply(m)
}

// path traces cmd in device space. Points are transformed here rather than
// through the context so that rotated and grouped shapes stay exact.
func (p painter) path(cmd render.DrawCommand) {
	m := p.matrix(cmd)
	dc := p.dc
	dc.NewSubPath()
	at := func(c render.PathCommand, i int) geom.Point {
		x, _ := c[i].(float64)
		y, _ := c[i+1].(float64)
		return m.Apply(geom.Point{X: x, Y: y})
	}
	for _, c := range cmd.Path {
		if len(c) == 0 {
			continue
		}
		op, _ := c[0].(string)
		switch {
		case op == "M" && len(c) == 3:
			q := at(c, 1)
			dc.MoveTo(q.X, q.Y)
		case op == "L" && len(c) == 3:
			q := at(c, 1)
			dc.LineTo(q.X, q.Y)
		case op == "Q" && len(c) == 5:
			c1, q := at(c, 1), at(c, 3)
			dc.QuadraticTo(c1.X, c1.Y, q.X, q.Y)
		case op == "C" && len(c) == 7:
			c1, c2, q := at(c, 1), at(c, 3), at(c, 5)
			dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, q.X, q.Y)
		case op == "Z":
			dc.ClosePath()
		}
	}

	fill, hasFill := paint(cmd.Fill, cmd.Opacity)
	stroke, hasStroke := paint(cmd.Stroke, cmd.Opacity)
	hasStroke = hasStroke && cmd.StrokeWidth > 0
	if cmd.Closed && hasFill {
		dc.SetColor(fill)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		dc.SetColor(stroke)
		dc.SetLineWidth(cmd.StrokeWidth * math.Sqrt(math.Abs(m.Determinant())))
		if cmd.LineCap == "round" {
			dc.SetLineCap(gg.LineCapRound)
			dc.SetLineJoin(gg.LineJoinRound)
		} else {
			dc.SetLineCap(gg.LineCapButt)
			dc.SetLineJoin(gg.LineJoinBevel)
		}
		dc.Stroke()
	}
	dc.ClearPath()
}

func (p painter) text(cmd render.DrawCommand) error {
	fill, ok := paint(cmd.Fill, cmd.Opacity)
	if !ok || cmd.Text == "" || cmd.FontSize <= 0 {
		return nil
	}
	f, err := regularFont()
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: cmd.FontSize, DPI: 72, Hinting: font.HintingNone})
	defer face.Close()

	// The context can only rotate and scale, so the matrix is decomposed;
	// shear from a non-uniformly scaled group is dropped.
	m := p.matrix(cmd)
	sx := math.Hypot(m[0], m[1])
	if sx == 0 {
		return nil
	}
	sy := m.Determinant() / sx

	dc := p.dc
	dc.Push()
	defer dc.Pop()
	dc.Translate(m[4], m[5])
	dc.Rotate(math.Atan2(m[1], m[0]))
	dc.Scale(sx, sy)
	dc.SetFontFace(face)
	dc.SetColor(fill)

	width := cmd.Width
	if width <= 0 {
		width, _ = dc.MeasureString(cmd.Text)
	}
	align := gg.AlignLeft
	switch cmd.Align {
	case document.AlignCenter:
		align = gg.AlignCenter
	case document.AlignRight:
		align = gg.AlignRight
	}
	dc.DrawStringWrapped(cmd.Text, 0, 0, 0, 0, width, 1, align)
	return nil
}

// image draws embedded data: URL pixels, or a placeholder box when the
// source lives elsewhere.
func (p painter) image(cmd render.DrawCommand) {
	src, ok := decodeDataURL(cmd.Src)
	if !ok {
		p.path(render.DrawCommand{
			Transform: cmd.Transform,
			Path:      []render.PathCommand{{"M", 0.0, 0.0}, {"L", cmd.Width, 0.0}, {"L", cmd.Width, cmd.Height}, {"L", 0.0, cmd.Height}, {"Z"}},
			Closed:    true,
			Fill:      placeholder,
			Opacity:   cmd.Opacity,
		})
		return
	}
	dst, ok := p.dc.Image().(draw.Image)
	if !ok {
		return
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	// map source pixels onto the element box, then into device space
	fit := p.matrix(cmd).Multiply(geom.Scale(cmd.Width/float64(b.Dx()), cmd.Height/float64(b.Dy())))
	aff := f64.Aff3{fit[0], fit[2], fit[4], fit[1], fit[3], fit[5]}
	opts := &draw.Options{}
	if cmd.Opacity < 1 {
		a := uint8(math.Round(geom.Clamp(cmd.Opacity, 0, 1) * 0xff))
		opts.SrcMask = image.NewUniform(color.Alpha{A: a})
		opts.SrcMaskP = b.Min
	}
	draw.BiLinear.Transform(dst, aff, src, b, draw.Over, opts)
}

func decodeDataURL(src string) (image.Image, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, false
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return img, true
}

// paint turns a stored color into a paintable one with opacity folded into
// its alpha. Empty, transparent and functional colors do not paint.
func paint(s string, opacity float64) (color.NRGBA, bool) {
	norm, ok := document.NormalizeColor(s)
	if !ok || !strings.HasPrefix(norm, "#") {
		return color.NRGBA{}, false
	}
	hex := norm[1:]
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 8 {
		return color.NRGBA{}, false
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	c.A = uint8(math.Round(float64(c.A) * geom.Clamp(opacity, 0, 1)))
	return c, c.A > 0
}
