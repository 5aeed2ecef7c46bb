// Package drawing captures freehand strokes into line elements.
package drawing

import (
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
)

// Tool selects how a stroke is painted.
type Tool int

const (
	Brush Tool = iota
	// Eraser paints with the canvas background color. It covers what is
	// underneath rather than removing it.
	Eraser
)

func (t Tool) String() string {
	switch t {
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

type State int

const (
	Idle State = iota
	Drawing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Committing:
		return "committing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MinPoints is the fewest samples a stroke needs to become an element.
const MinPoints = 2

// Style is the paint used for new strokes.
type Style struct {
	Stroke      string
	StrokeWidth float64
	Background  string
}

// DefaultStyle is a thin black brush on a white card.
var DefaultStyle = Style{Stroke: "#000000", StrokeWidth: 4, Background: document.DefaultBackground}

// Machine accumulates one stroke at a time. The zero value is idle.
type Machine struct {
	state  State
	tool   Tool
	style  Style
	layer  int
	points []geom.Point
}

func (m *Machine) State() State { return m.state }

// Active reports whether a stroke is being drawn.
func (m *Machine) Active() bool { return m.state == Drawing }

// Begin starts a stroke at p on the given layer. It does nothing unless
// the machine is idle.
func (m *Machine) Begin(tool Tool, style Style, layer int, p geom.Point) bool {
	if m.state != Idle || !geom.Finite(p.X, p.Y) {
		return false
	}
	m.state = Drawing
	m.tool = tool
	m.style = style
	m.layer = layer
	m.points = append(m.points[:0], p)
	return true
}

// Move records a sample. Repeats of the last sample are ignored.
func (m *Machine) Move(p geom.Point) bool {
	if m.state != Drawing || !geom.Finite(p.X, p.Y) {
		return false
	}
	if last := m.points[len(m.points)-1]; last == p {
		return false
	}
	m.points = append(m.points, p)
	return true
}

// Points returns the samples recorded so far, for previewing the stroke.
func (m *Machine) Points() []geom.Point {
	return append([]geom.Point(nil), m.points...)
}

// End finishes the stroke. With at least MinPoints samples it returns a
// line element with the given id whose points are relative to the first
// sample; otherwise the stroke is discarded and ok is false. Either way the
// machine is idle afterwards.
func (m *Machine) End(id string) (el document.Element, ok bool) {
	if m.state != Drawing {
		return document.Element{}, false
	}
	m.state = Committing
	defer m.reset()

	if len(m.points) < MinPoints {
		return document.Element{}, false
	}
	origin := m.points[0]
	flat := make([]float64, 0, 2*len(m.points))
	for _, p := range m.points {
		flat = append(flat, p.X-origin.X, p.Y-origin.Y)
	}
	color := m.style.Stroke
	if m.tool == Eraser {
		color = m.style.Background
	}
	return document.Element{
		ID:          id,
		Type:        document.TypeLine,
		X:           origin.X,
		Y:           origin.Y,
		Points:      flat,
		Stroke:      color,
		StrokeWidth: m.style.StrokeWidth,
		ScaleX:      1,
		ScaleY:      1,
		Opacity:     1,
		LayerIndex:  m.layer,
	}, true
}

// Cancel drops the stroke in progress.
func (m *Machine) Cancel() {
	if m.state == Drawing {
		m.reset()
	}
}

func (m *Machine) reset() {
	m.state = Idle
	m.points = m.points[:0]
}
