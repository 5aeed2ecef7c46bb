package editor

import (
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/grouping"
	"github.com/cardstudio/cardstudio/internal/layers"
	"github.com/cardstudio/cardstudio/internal/scene"
	"github.com/cardstudio/cardstudio/internal/transform"
	"github.com/cardstudio/cardstudio/internal/typeid"
)

const (
	// DuplicateOffset is how far copies are shifted from their originals.
	DuplicateOffset = 10.0
	NudgeFine       = 1.0
	NudgeCoarse     = 10.0
)

// AddElement places el on the active layer, on top of it, and selects it.
// A missing id is generated. Returns the element id.
func (c *Controller) AddElement(el document.Element) (string, bool) {
	c.ensureIdle()
	if c.activeLayerLocked() {
		return "", c.reject("add", errActiveLayerLocked)
	}
	if el.ID == "" {
		el.ID = c.newID(typeid.PrefixElement)
	}
	el.LayerIndex = c.activeLayer
	next, err := c.live.AddElement(el)
	if err != nil {
		return "", c.reject("add", err)
	}
	c.apply("add", next)
	c.sel.Set(c.live, []string{el.ID})
	return el.ID, true
}

// AddShape adds a toolbar preset centered on the card.
func (c *Controller) AddShape(typ document.ElementType) (string, bool) {
	el, err := Preset(typ, c.cardCenter())
	if err != nil {
		return "", c.reject("add", err)
	}
	return c.AddElement(el)
}

// AddImage adds an image from a source the surrounding application has
// already uploaded, fitted to half the card.
func (c *Controller) AddImage(src string, naturalW, naturalH float64) (string, bool) {
	cv := c.committed.Canvas
	el, err := Image(src, naturalW, naturalH, c.cardCenter(), cv.Width/2, cv.Height/2)
	if err != nil {
		return "", c.reject("add", err)
	}
	return c.AddElement(el)
}

func (c *Controller) cardCenter() geom.Point {
	cv := c.committed.Canvas
	return geom.Point{X: cv.Width / 2, Y: cv.Height / 2}
}

// UpdateElement applies a property change to one element.
func (c *Controller) UpdateElement(id string, p scene.Patch) bool {
	c.ensureIdle()
	if p.Empty() {
		return false
	}
	if c.live.Has(id) && c.live.ElementLocked(id) {
		return c.reject("update", transform.ErrLocked)
	}
	next, err := c.live.UpdateElement(id, p)
	if err != nil {
		return c.reject("update", err)
	}
	return c.apply("update", next)
}

// UpdateSelection applies the same property change to every selected
// element as one history step.
func (c *Controller) UpdateSelection(p scene.Patch) bool {
	c.ensureIdle()
	if p.Empty() || c.sel.Empty() {
		return false
	}
	changed := 0
	next, err := c.live.Edit(func(tx *scene.Tx) error {
		for _, id := range c.sel.IDs() {
			if tx.Scene().ElementLocked(id) {
				continue
			}
			if err := tx.Mutate(id, p.Apply); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return c.reject("update", err)
	}
	if changed == 0 {
		return false
	}
	return c.apply("update", next)
}

// Select replaces the selection with the selectable subset of ids.
func (c *Controller) Select(ids []string) {
	c.sel.Set(c.live, ids)
}

// Click applies click-selection semantics to id without starting a drag.
func (c *Controller) Click(id string, additive bool) bool {
	return c.sel.Toggle(c.live, id, additive)
}

// SelectAll selects every top-level element on visible, unlocked layers.
func (c *Controller) SelectAll() {
	var ids []string
	for _, id := range c.live.RenderOrder() {
		el, _ := c.live.Get(id)
		if c.live.LayerVisible(el.LayerIndex) && !c.live.LayerLocked(el.LayerIndex) {
			ids = append(ids, id)
		}
	}
	c.sel.Set(c.live, ids)
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() { c.sel.Clear() }

// DeleteSelection removes the selected elements and returns how many
// elements went, group children included.
func (c *Controller) DeleteSelection() int {
	c.ensureIdle()
	if c.sel.Empty() {
		return 0
	}
	next, n := c.live.RemoveElements(c.sel.IDs())
	if n == 0 {
		return 0
	}
	c.apply("delete", next)
	return n
}

// Duplicate copies the selected top-level elements, offset down and right,
// and selects the copies. Groups are copied with their children.
func (c *Controller) Duplicate() []string {
	c.ensureIdle()
	var copies []string
	next, err := c.live.Edit(func(tx *scene.Tx) error {
		for _, id := range c.sel.IDs() {
			el, ok := tx.Get(id)
			if !ok || el.GroupID != "" || tx.Scene().LayerLocked(el.LayerIndex) {
				continue
			}
			dup := el.Clone()
			dup.ID = c.newID(typeid.PrefixElement)
			dup.X += DuplicateOffset
			dup.Y += DuplicateOffset

			if el.Type != document.TypeGroup {
				if err := tx.Add(dup); err != nil {
					return err
				}
				copies = append(copies, dup.ID)
				continue
			}
			children := make([]document.Element, 0, len(el.Children))
			for _, cid := range el.Children {
				child, ok := tx.Get(cid)
				if !ok {
					continue
				}
				child = child.Clone()
				child.ID = c.newID(typeid.PrefixElement)
				children = append(children, child)
			}
			dup.Children = nil
			if err := tx.AddGroup(dup, children); err != nil {
				return err
			}
			copies = append(copies, dup.ID)
		}
		return nil
	})
	if err != nil {
		c.reject("duplicate", err)
		return nil
	}
	if len(copies) == 0 {
		return nil
	}
	c.apply("duplicate", next)
	c.sel.Set(c.live, copies)
	return copies
}

// Nudge moves the selection by a fixed step, ignoring the grid.
func (c *Controller) Nudge(dx, dy float64) bool {
	c.ensureIdle()
	if c.sel.Empty() {
		return false
	}
	next, _, err := transform.Drag(c.live, c.sel.IDs(), dx, dy, geom.Grid{})
	if err != nil {
		return c.reject("nudge", err)
	}
	return c.apply("nudge", next)
}

// Rotate turns the primary selection by a fixed angle, as the rotate
// toolbar buttons do.
func (c *Controller) Rotate(degrees float64) bool {
	c.ensureIdle()
	id, ok := c.sel.Primary()
	if !ok {
		return false
	}
	next, err := transform.Rotate(c.live, id, degrees, c.grid)
	if err != nil {
		return c.reject("rotate", err)
	}
	return c.apply("rotate", next)
}

// Resize sets the primary selection's size from the properties panel,
// keeping its top-left corner.
func (c *Controller) Resize(width, height float64, keepRatio bool) bool {
	c.ensureIdle()
	id, ok := c.sel.Primary()
	if !ok {
		return false
	}
	next, err := transform.Resize(c.live, id, width, height, transform.BottomRight, keepRatio, c.grid)
	if err != nil {
		return c.reject("resize", err)
	}
	return c.apply("resize", next)
}

// Reorder changes the primary selection's stacking within its layer.
func (c *Controller) Reorder(move scene.ZMove) bool {
	c.ensureIdle()
	id, ok := c.sel.Primary()
	if !ok {
		return false
	}
	if c.live.Has(id) && c.live.ElementLocked(id) {
		return c.reject("reorder", transform.ErrLocked)
	}
	next, err := c.live.Reorder(id, move)
	if err != nil {
		return c.reject("reorder", err)
	}
	return c.apply("reorder "+move.String(), next)
}

// Group wraps the selection in a new group and selects it.
func (c *Controller) Group() (string, bool) {
	c.ensureIdle()
	if c.activeLayerLocked() {
		return "", c.reject("group", fmt.Errorf("%w: %w", grouping.ErrPrecondition, errActiveLayerLocked))
	}
	id := c.newID(typeid.PrefixElement)
	next, err := grouping.Group(c.live, c.sel.IDs(), id)
	if err != nil {
		return "", c.reject("group", err)
	}
	c.apply("group", next)
	c.sel.Set(c.live, []string{id})
	return id, true
}

// Ungroup dissolves every selected group and selects the freed children.
func (c *Controller) Ungroup() bool {
	c.ensureIdle()
	if c.activeLayerLocked() {
		return c.reject("ungroup", fmt.Errorf("%w: %w", grouping.ErrPrecondition, errActiveLayerLocked))
	}
	groups := grouping.Groups(c.live, c.sel.IDs())
	if len(groups) == 0 {
		return c.reject("ungroup", fmt.Errorf("%w: no group selected", grouping.ErrPrecondition))
	}
	next := c.live
	var freed []string
	for _, gid := range groups {
		out, children, err := grouping.Ungroup(next, gid)
		if err != nil {
			return c.reject("ungroup", err)
		}
		next = out
		freed = append(freed, children...)
	}
	c.apply("ungroup", next)
	c.sel.Set(c.live, freed)
	return true
}

// MoveSelectionToLayer moves the selected top-level elements to another
// layer.
func (c *Controller) MoveSelectionToLayer(index int) bool {
	c.ensureIdle()
	if c.live.LayerLocked(index) {
		return c.reject("move to layer", errActiveLayerLocked)
	}
	next := c.live
	for _, id := range c.sel.IDs() {
		if next.ElementLocked(id) {
			continue
		}
		out, err := next.MoveToLayer(id, index)
		if err != nil {
			return c.reject("move to layer", err)
		}
		next = out
	}
	return c.apply("move to layer", next)
}

// AddLayer appends a layer and makes it active.
func (c *Controller) AddLayer() bool {
	c.ensureIdle()
	next, index, err := layers.Add(c.live, c.newID(typeid.PrefixLayer))
	if err != nil {
		return c.reject("add layer", err)
	}
	c.apply("add layer", next)
	c.activeLayer = index
	return true
}

// ToggleLayerVisibility shows or hides a layer.
func (c *Controller) ToggleLayerVisibility(index int) bool {
	c.ensureIdle()
	next, err := layers.ToggleVisibility(c.live, index)
	if err != nil {
		return c.reject("toggle visibility", err)
	}
	return c.apply("toggle visibility", next)
}

// ToggleLayerLock locks or unlocks a layer. Locking drops its elements
// from the selection.
func (c *Controller) ToggleLayerLock(index int) bool {
	c.ensureIdle()
	next, err := layers.ToggleLock(c.live, index)
	if err != nil {
		return c.reject("toggle lock", err)
	}
	return c.apply("toggle lock", next)
}

// RenameLayer sets a layer's display name.
func (c *Controller) RenameLayer(index int, name string) bool {
	c.ensureIdle()
	next, err := layers.Rename(c.live, index, name)
	if err != nil {
		return c.reject("rename layer", err)
	}
	return c.apply("rename layer", next)
}

// MoveLayer swaps a layer with its neighbour. The active layer follows the
// layer it pointed at.
func (c *Controller) MoveLayer(index int, dir layers.Direction) bool {
	c.ensureIdle()
	next, to, err := layers.Move(c.live, index, dir)
	if err != nil {
		return c.reject("move layer", err)
	}
	switch c.activeLayer {
	case index:
		c.activeLayer = to
	case to:
		c.activeLayer = index
	}
	return c.apply("move layer", next)
}

// DeleteLayer removes a layer and its elements. The sole layer cannot be
// deleted.
func (c *Controller) DeleteLayer(index int) bool {
	c.ensureIdle()
	next, err := layers.Delete(c.live, index)
	if err != nil {
		return c.reject("delete layer", err)
	}
	if c.activeLayer > index {
		c.activeLayer--
	}
	c.activeLayer = layers.Clamp(next, c.activeLayer)
	return c.apply("delete layer", next)
}
