package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/editor"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/layers"
	"github.com/cardstudio/cardstudio/internal/scene"
	"github.com/cardstudio/cardstudio/internal/transform"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrBadPayload  = errors.New("invalid payload")
)

func decode[T any](msg Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %w", ErrBadPayload, msg.Type, err)
	}
	return v, nil
}

func badPayload(typ, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrBadPayload, typ, reason)
}

// Apply runs one editing message against c. It reports whether the message
// asked for a save; saving needs a store, so the caller performs it.
func Apply(c *editor.Controller, msg Message) (bool, error) {
	switch msg.Type {
	case TypeDocLoad:
		p, err := decode[DocLoadPayload](msg)
		if err != nil {
			return false, err
		}
		switch {
		case len(p.Design) > 0 && p.Template != "":
			return false, badPayload(msg.Type, "give either design or template")
		case len(p.Design) > 0:
			// A malformed design falls back to empty and shows in the state.
			c.Load(p.Design)
			return false, nil
		case p.Template != "":
			return false, c.LoadTemplate(p.Template)
		default:
			return false, c.LoadTemplate("blank")
		}

	case TypePointerDown:
		p, err := decode[PointerPayload](msg)
		if err != nil {
			return false, err
		}
		c.PointerDown(geom.Point{X: p.X, Y: p.Y}, p.Modifiers)
	case TypePointerMove:
		p, err := decode[PointerPayload](msg)
		if err != nil {
			return false, err
		}
		c.PointerMove(geom.Point{X: p.X, Y: p.Y})
	case TypePointerUp:
		p, err := decode[PointerPayload](msg)
		if err != nil {
			return false, err
		}
		c.PointerUp(geom.Point{X: p.X, Y: p.Y})
	case TypePointerLeave:
		c.PointerLeave()
	case TypeResizeStart:
		p, err := decode[ResizeStartPayload](msg)
		if err != nil {
			return false, err
		}
		anchor, ok := transform.ParseAnchor(p.Handle)
		if !ok {
			return false, badPayload(msg.Type, "unknown handle "+p.Handle)
		}
		c.StartResize(anchor, geom.Point{X: p.X, Y: p.Y}, p.KeepRatio)
	case TypeRotateStart:
		p, err := decode[PointerPayload](msg)
		if err != nil {
			return false, err
		}
		c.StartRotate(geom.Point{X: p.X, Y: p.Y})
	case TypeKey:
		ev, err := decode[editor.KeyEvent](msg)
		if err != nil {
			return false, err
		}
		if cmd, ok := c.Key(ev); ok && cmd == editor.CmdSave {
			return true, nil
		}
	case TypeToolSet:
		p, err := decode[ToolPayload](msg)
		if err != nil {
			return false, err
		}
		tool, ok := editor.ParseTool(p.Tool)
		if !ok {
			return false, badPayload(msg.Type, "unknown tool "+p.Tool)
		}
		c.SetTool(tool)
	case TypeStyleSet:
		p, err := decode[StylePayload](msg)
		if err != nil {
			return false, err
		}
		if p.StrokeWidth <= 0 {
			return false, badPayload(msg.Type, "strokeWidth must be positive")
		}
		c.SetStyle(p.style())

	case TypeLayerAdd:
		c.AddLayer()
	case TypeLayerActivate, TypeLayerVisibility, TypeLayerLock, TypeLayerDelete, TypeElementToLayer:
		p, err := decode[IndexPayload](msg)
		if err != nil {
			return false, err
		}
		switch msg.Type {
		case TypeLayerActivate:
			c.SetActiveLayer(p.Index)
		case TypeLayerVisibility:
			c.ToggleLayerVisibility(p.Index)
		case TypeLayerLock:
			c.ToggleLayerLock(p.Index)
		case TypeLayerDelete:
			c.DeleteLayer(p.Index)
		case TypeElementToLayer:
			c.MoveSelectionToLayer(p.Index)
		}
	case TypeLayerRename:
		p, err := decode[LayerRenamePayload](msg)
		if err != nil {
			return false, err
		}
		c.RenameLayer(p.Index, p.Name)
	case TypeLayerMove:
		p, err := decode[LayerMovePayload](msg)
		if err != nil {
			return false, err
		}
		dir := layers.Direction(p.Dir)
		if dir != layers.Up && dir != layers.Down {
			return false, badPayload(msg.Type, "dir must be 1 or -1")
		}
		c.MoveLayer(p.Index, dir)

	case TypeElementAdd:
		p, err := decode[ElementAddPayload](msg)
		if err != nil {
			return false, err
		}
		typ := document.ElementType(p.Shape)
		if !typ.Valid() || typ == document.TypeGroup || typ == document.TypeImage {
			return false, badPayload(msg.Type, "unknown shape "+p.Shape)
		}
		c.AddShape(typ)
	case TypeElementImage:
		p, err := decode[ElementImagePayload](msg)
		if err != nil {
			return false, err
		}
		if p.Src == "" {
			return false, badPayload(msg.Type, "src is required")
		}
		c.AddImage(p.Src, p.NaturalWidth, p.NaturalHeight)
	case TypeElementUpdate:
		p, err := decode[ElementUpdatePayload](msg)
		if err != nil {
			return false, err
		}
		if p.ID == "" {
			c.UpdateSelection(p.Patch)
		} else {
			c.UpdateElement(p.ID, p.Patch)
		}
	case TypeElementDelete:
		c.DeleteSelection()
	case TypeElementDuplicate:
		c.Duplicate()
	case TypeElementReorder:
		p, err := decode[ReorderPayload](msg)
		if err != nil {
			return false, err
		}
		move, ok := scene.ParseZMove(p.Move)
		if !ok {
			return false, badPayload(msg.Type, "unknown move "+p.Move)
		}
		c.Reorder(move)
	case TypeElementGroup:
		c.Group()
	case TypeElementUngroup:
		c.Ungroup()
	case TypeElementRotate:
		p, err := decode[RotatePayload](msg)
		if err != nil {
			return false, err
		}
		c.Rotate(p.Degrees)
	case TypeElementResize:
		p, err := decode[ResizePayload](msg)
		if err != nil {
			return false, err
		}
		c.Resize(p.Width, p.Height, p.KeepRatio)
	case TypeSelectionSet:
		p, err := decode[SelectionPayload](msg)
		if err != nil {
			return false, err
		}
		c.Select(p.IDs)

	case TypeViewZoom:
		p, err := decode[ZoomPayload](msg)
		if err != nil {
			return false, err
		}
		if p.Factor <= 0 {
			return false, badPayload(msg.Type, "factor must be positive")
		}
		c.ZoomAt(geom.Point{X: p.X, Y: p.Y}, p.Factor)
	case TypeViewPan:
		p, err := decode[PanPayload](msg)
		if err != nil {
			return false, err
		}
		c.PanBy(geom.Point{X: p.DX, Y: p.DY})
	case TypeViewReset:
		c.ResetView()
	case TypeViewGrid:
		p, err := decode[GridPayload](msg)
		if err != nil {
			return false, err
		}
		if p.Size != nil && !c.SetGridSize(*p.Size) {
			return false, badPayload(msg.Type, "grid size must be positive")
		}
		if p.Snap != nil && *p.Snap != c.Grid().Enabled {
			c.ToggleSnap()
		}
	case TypeBackgroundSet:
		p, err := decode[BackgroundPayload](msg)
		if err != nil {
			return false, err
		}
		if _, ok := document.NormalizeColor(p.Color); !ok {
			return false, badPayload(msg.Type, "unrecognized color "+p.Color)
		}
		c.SetBackground(p.Color)

	case TypeUndo:
		c.Undo()
	case TypeRedo:
		c.Redo()
	case TypeSave:
		return true, nil

	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
	return false, nil
}
