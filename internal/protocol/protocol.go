// Package protocol is the message set spoken between an editor front end
// and the Go controller, over a websocket or across the wasm boundary.
package protocol

import (
	"encoding/json"

	"github.com/cardstudio/cardstudio/internal/drawing"
	"github.com/cardstudio/cardstudio/internal/editor"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client to server.
const (
	TypeDocLoad = "doc.load"

	TypePointerDown  = "pointer.down"
	TypePointerMove  = "pointer.move"
	TypePointerUp    = "pointer.up"
	TypePointerLeave = "pointer.leave"
	TypeResizeStart  = "resize.start"
	TypeRotateStart  = "rotate.start"
	TypeKey          = "key"
	TypeToolSet      = "tool.set"
	TypeStyleSet     = "style.set"

	TypeLayerAdd        = "layer.add"
	TypeLayerActivate   = "layer.activate"
	TypeLayerVisibility = "layer.visibility"
	TypeLayerLock       = "layer.lock"
	TypeLayerRename     = "layer.rename"
	TypeLayerMove       = "layer.move"
	TypeLayerDelete     = "layer.delete"

	TypeElementAdd       = "element.add"
	TypeElementImage     = "element.image"
	TypeElementUpdate    = "element.update"
	TypeElementDelete    = "element.delete"
	TypeElementDuplicate = "element.duplicate"
	TypeElementReorder   = "element.reorder"
	TypeElementGroup     = "element.group"
	TypeElementUngroup   = "element.ungroup"
	TypeElementToLayer   = "element.toLayer"
	TypeElementRotate    = "element.rotate"
	TypeElementResize    = "element.resize"
	TypeSelectionSet     = "selection.set"

	TypeViewZoom  = "view.zoom"
	TypeViewPan   = "view.pan"
	TypeViewReset = "view.reset"
	TypeViewGrid  = "view.grid"

	TypeBackgroundSet = "canvas.background"
	TypeUndo          = "history.undo"
	TypeRedo          = "history.redo"
	TypeSave          = "save"
)

// Server to client.
const (
	TypeWelcome   = "welcome"
	TypeState     = "state"
	TypeSaveOK    = "save.ok"
	TypeSaveError = "save.error"
	TypeError     = "error"
)

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	CardID    string `json:"cardId,omitempty"`
}

type SaveOKPayload struct {
	CardID string `json:"cardId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	// Request is the type of the message that caused it, if any.
	Request string `json:"request,omitempty"`
}

// DocLoadPayload replaces the open design. Exactly one of Design and
// Template is used; with neither the editor starts blank.
type DocLoadPayload struct {
	Design   json.RawMessage `json:"design,omitempty"`
	Template string          `json:"template,omitempty"`
}

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	editor.Modifiers
}

type ResizeStartPayload struct {
	Handle    string  `json:"handle"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	KeepRatio bool    `json:"keepRatio"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

type StylePayload struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Background  string  `json:"background"`
}

func (p StylePayload) style() drawing.Style {
	return drawing.Style{Stroke: p.Stroke, StrokeWidth: p.StrokeWidth, Background: p.Background}
}

type IndexPayload struct {
	Index int `json:"index"`
}

type LayerRenamePayload struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type LayerMovePayload struct {
	Index int `json:"index"`
	// Dir is 1 to move the layer up (towards the front), -1 down.
	Dir int `json:"dir"`
}

type ElementAddPayload struct {
	Shape string `json:"shape"`
}

type ElementImagePayload struct {
	Src           string  `json:"src"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
}

// ElementUpdatePayload patches one element, or the whole selection when
// ID is empty.
type ElementUpdatePayload struct {
	ID    string      `json:"id,omitempty"`
	Patch scene.Patch `json:"patch"`
}

type ReorderPayload struct {
	Move string `json:"move"`
}

type RotatePayload struct {
	Degrees float64 `json:"degrees"`
}

type ResizePayload struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	KeepRatio bool    `json:"keepRatio"`
}

type SelectionPayload struct {
	IDs []string `json:"ids"`
}

type ZoomPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Factor float64 `json:"factor"`
}

type PanPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type GridPayload struct {
	Size *float64 `json:"size,omitempty"`
	Snap *bool    `json:"snap,omitempty"`
}

type BackgroundPayload struct {
	Color string `json:"color"`
}
