// Package scene holds the editor's element arena. A Scene is immutable once
// built: every mutator returns a new Scene and leaves the receiver intact, so
// history can keep scenes by reference.
package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
)

var (
	ErrNotFound       = errors.New("element not found")
	ErrDuplicateID    = errors.New("duplicate element id")
	ErrInvalidLayer   = errors.New("invalid layer index")
	ErrInvalidElement = errors.New("invalid element")
	ErrInvariant      = errors.New("scene invariant violated")
)

// lineHitSlop widens thin strokes so they can be clicked.
const lineHitSlop = 3.0

// Scene is one immutable state of the design: layers, elements and z-order.
//
// order lists top-level element ids (groups and ungrouped elements) in
// paint order; an element's layer decides which layer it paints in, and
// order decides the stacking within that layer. Grouped elements are painted
// in their group's Children order.
type Scene struct {
	layers   []document.Layer
	elements map[string]document.Element
	order    []string
	// pins maps a group id to its members' placements at grouping time.
	// Entries are replaced, never mutated.
	pins map[string]groupPin
}

// New builds a scene from layers and elements listed in paint order. Grouped
// elements may appear anywhere in the list; their group's Children decides
// their order.
func New(layers []document.Layer, elements []document.Element) (*Scene, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: scene needs at least one layer", ErrInvalidLayer)
	}
	s := &Scene{
		layers:   slices.Clone(layers),
		elements: make(map[string]document.Element, len(elements)),
		order:    make([]string, 0, len(elements)),
	}
	for _, el := range elements {
		if _, dup := s.elements[el.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
		}
		el = el.Clone()
		el.Normalize()
		s.elements[el.ID] = el
		if el.GroupID == "" {
			s.order = append(s.order, el.ID)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromDocument builds a scene from a loaded design.
func FromDocument(doc *document.Document) (*Scene, error) {
	return New(doc.Layers, doc.Elements)
}

func (s *Scene) clone() *Scene {
	out := &Scene{
		layers:   slices.Clone(s.layers),
		elements: make(map[string]document.Element, len(s.elements)),
		order:    slices.Clone(s.order),
		pins:     maps.Clone(s.pins),
	}
	for id, el := range s.elements {
		out.elements[id] = el
	}
	return out
}

// Len is the number of elements, grouped ones included.
func (s *Scene) Len() int { return len(s.elements) }

// Get returns a copy of the element with the given id.
func (s *Scene) Get(id string) (document.Element, bool) {
	el, ok := s.elements[id]
	if !ok {
		return document.Element{}, false
	}
	return el.Clone(), true
}

// Has reports whether id names an element in the scene.
func (s *Scene) Has(id string) bool {
	_, ok := s.elements[id]
	return ok
}

// Layers returns a copy of the layer list, bottom layer first.
func (s *Scene) Layers() []document.Layer { return slices.Clone(s.layers) }

func (s *Scene) LayerCount() int { return len(s.layers) }

// Layer returns the layer at index.
func (s *Scene) Layer(index int) (document.Layer, bool) {
	if index < 0 || index >= len(s.layers) {
		return document.Layer{}, false
	}
	return s.layers[index], true
}

// LayerLocked reports whether the layer at index is locked. Out-of-range
// indexes count as locked.
func (s *Scene) LayerLocked(index int) bool {
	l, ok := s.Layer(index)
	return !ok || l.Locked
}

// LayerVisible reports whether the layer at index is shown.
func (s *Scene) LayerVisible(index int) bool {
	l, ok := s.Layer(index)
	return ok && l.Visible
}

// ElementLocked reports whether the element sits on a locked layer.
func (s *Scene) ElementLocked(id string) bool {
	el, ok := s.elements[id]
	return !ok || s.LayerLocked(el.LayerIndex)
}

// TopLevel returns the ids of ungrouped elements and groups in z-order.
func (s *Scene) TopLevel() []string { return slices.Clone(s.order) }

// RenderOrder returns top-level ids in paint order: by layer, then by
// z-order within the layer.
func (s *Scene) RenderOrder() []string {
	out := slices.Clone(s.order)
	slices.SortStableFunc(out, func(a, b string) int {
		return s.elements[a].LayerIndex - s.elements[b].LayerIndex
	})
	return out
}

// Elements returns every element in save order: each top-level element
// followed by its children when it is a group.
func (s *Scene) Elements() []document.Element {
	out := make([]document.Element, 0, len(s.elements))
	for _, id := range s.order {
		el := s.elements[id]
		out = append(out, el.Clone())
		for _, cid := range el.Children {
			out = append(out, s.elements[cid].Clone())
		}
	}
	return out
}

// OnLayer returns the top-level ids on the given layer in z-order.
func (s *Scene) OnLayer(index int) []string {
	var out []string
	for _, id := range s.order {
		if s.elements[id].LayerIndex == index {
			out = append(out, id)
		}
	}
	return out
}

// WorldMatrix maps the element's local space into stage space.
func (s *Scene) WorldMatrix(id string) geom.Matrix2D {
	el, ok := s.elements[id]
	if !ok {
		return geom.Identity()
	}
	m := el.Matrix()
	if el.GroupID != "" {
		if g, ok := s.elements[el.GroupID]; ok {
			m = g.Matrix().Multiply(m)
		}
	}
	return m
}

// Bounds returns the element's axis-aligned box in stage space. A group's
// box covers its children.
func (s *Scene) Bounds(id string) geom.Rect {
	el, ok := s.elements[id]
	if !ok {
		return geom.Rect{}
	}
	if el.Type == document.TypeGroup && len(el.Children) > 0 {
		rects := make([]geom.Rect, 0, len(el.Children))
		for _, cid := range el.Children {
			rects = append(rects, s.Bounds(cid))
		}
		return geom.UnionAll(rects)
	}
	r := s.WorldMatrix(id).TransformRect(el.LocalBounds())
	if el.Type == document.TypeLine {
		r = r.Inset(-el.StrokeWidth / 2)
	}
	return r
}

// Contains reports whether a stage point falls inside the element. Shapes
// use their own geometry where it is cheap to test; everything else uses the
// bounding box.
func (s *Scene) Contains(id string, p geom.Point) bool {
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	switch el.Type {
	case document.TypeGroup:
		for _, cid := range el.Children {
			if s.Contains(cid, p) {
				return true
			}
		}
		return false
	case document.TypeLine:
		pad := max(lineHitSlop-el.StrokeWidth/2, 0)
		return s.Bounds(id).Inset(-pad).Contains(p)
	}
	local := s.WorldMatrix(id).Invert().Apply(p)
	if el.Type == document.TypeEllipse {
		if el.RadiusX <= 0 || el.RadiusY <= 0 {
			return false
		}
		nx, ny := local.X/el.RadiusX, local.Y/el.RadiusY
		return nx*nx+ny*ny <= 1
	}
	return el.LocalBounds().Contains(local)
}

// Edit runs fn against a private copy of the scene. If fn returns an
// error the receiver is returned unchanged alongside it.
func (s *Scene) Edit(fn func(tx *Tx) error) (*Scene, error) {
	tx := &Tx{s: s.clone()}
	if err := fn(tx); err != nil {
		return s, err
	}
	return tx.s, nil
}

// AddElement places a new top-level element on top of its layer.
func (s *Scene) AddElement(el document.Element) (*Scene, error) {
	return s.Edit(func(tx *Tx) error { return tx.Add(el) })
}

// UpdateElement applies a partial update. A missing id yields ErrNotFound
// and the unchanged scene.
func (s *Scene) UpdateElement(id string, p Patch) (*Scene, error) {
	return s.Edit(func(tx *Tx) error {
		return tx.Mutate(id, p.Apply)
	})
}

// RemoveElements deletes the given elements. Removing a group removes its
// children; removing the last child of a group removes the group. Unknown
// ids are ignored. The second result is the number of elements removed.
func (s *Scene) RemoveElements(ids []string) (*Scene, int) {
	n := 0
	out, _ := s.Edit(func(tx *Tx) error {
		n = tx.Remove(ids)
		return nil
	})
	if n == 0 {
		return s, 0
	}
	return out, n
}

// ReplaceLayers swaps in a new layer list. remap maps each element's old
// layer index to its new one; elements for which it reports false are
// removed along with their children.
func (s *Scene) ReplaceLayers(layers []document.Layer, remap func(old int) (int, bool)) (*Scene, error) {
	if len(layers) == 0 {
		return s, fmt.Errorf("%w: scene needs at least one layer", ErrInvalidLayer)
	}
	return s.Edit(func(tx *Tx) error {
		var drop []string
		for _, id := range tx.s.order {
			el := tx.s.elements[id]
			to, keep := remap(el.LayerIndex)
			if !keep {
				drop = append(drop, id)
				continue
			}
			if to < 0 || to >= len(layers) {
				return fmt.Errorf("%w: %d", ErrInvalidLayer, to)
			}
			tx.setLayer(id, to)
		}
		tx.Remove(drop)
		tx.s.layers = slices.Clone(layers)
		return nil
	})
}

// MoveToLayer moves a top-level element (and a group's children) onto
// another layer, on top of that layer's stack.
func (s *Scene) MoveToLayer(id string, index int) (*Scene, error) {
	return s.Edit(func(tx *Tx) error {
		el, ok := tx.s.elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if el.GroupID != "" {
			return fmt.Errorf("%w: %s is grouped", ErrInvalidElement, id)
		}
		if index < 0 || index >= len(tx.s.layers) {
			return fmt.Errorf("%w: %d", ErrInvalidLayer, index)
		}
		tx.setLayer(id, index)
		tx.s.order = slices.DeleteFunc(tx.s.order, func(o string) bool { return o == id })
		tx.s.order = append(tx.s.order, id)
		return nil
	})
}
