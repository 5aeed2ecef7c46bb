package scene

import (
	"fmt"
	"slices"

	"github.com/cardstudio/cardstudio/internal/document"
)

// Tx is a batch of edits against a private copy of a scene. It is only
// valid inside the function passed to Scene.Edit.
type Tx struct {
	s *Scene
}

// Scene exposes the scene as edited so far, for queries such as Bounds.
func (tx *Tx) Scene() *Scene { return tx.s }

// Get returns a copy of an element.
func (tx *Tx) Get(id string) (document.Element, bool) { return tx.s.Get(id) }

// Add inserts a new top-level element on top of its layer. Groups cannot
// be added this way; see Group and AddGroup.
func (tx *Tx) Add(el document.Element) error {
	if el.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidElement)
	}
	if _, dup := tx.s.elements[el.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
	}
	if el.Type == document.TypeGroup || el.GroupID != "" || len(el.Children) > 0 {
		return fmt.Errorf("%w: %s: group membership is set by grouping", ErrInvalidElement, el.ID)
	}
	if el.LayerIndex < 0 || el.LayerIndex >= len(tx.s.layers) {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, el.LayerIndex)
	}
	el = el.Clone()
	el.Normalize()
	if err := el.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	tx.s.elements[el.ID] = el
	tx.s.order = append(tx.s.order, el.ID)
	return nil
}

// Mutate edits one element in place. Identity, type, layer and group
// membership are restored after fn runs; they change only through the
// dedicated operations. The result is normalized and checked.
func (tx *Tx) Mutate(id string, fn func(el *document.Element)) error {
	orig, ok := tx.s.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	el := orig.Clone()
	fn(&el)
	el.ID = orig.ID
	el.Type = orig.Type
	el.LayerIndex = orig.LayerIndex
	el.GroupID = orig.GroupID
	el.Children = slices.Clone(orig.Children)
	el.Normalize()
	if err := el.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	tx.s.elements[id] = el
	return nil
}

// Remove deletes elements and returns how many were removed, cascading
// group deletions in both directions.
func (tx *Tx) Remove(ids []string) int {
	n := 0
	for _, id := range ids {
		el, ok := tx.s.elements[id]
		if !ok {
			continue
		}
		if el.Type == document.TypeGroup {
			for _, cid := range el.Children {
				if _, ok := tx.s.elements[cid]; ok {
					delete(tx.s.elements, cid)
					n++
				}
			}
		}
		delete(tx.s.elements, id)
		delete(tx.s.pins, id)
		n++

		if el.GroupID != "" {
			g, ok := tx.s.elements[el.GroupID]
			if !ok {
				continue
			}
			g = g.Clone()
			g.Children = slices.DeleteFunc(g.Children, func(c string) bool { return c == id })
			if len(g.Children) == 0 {
				delete(tx.s.elements, g.ID)
				delete(tx.s.pins, g.ID)
				n++
			} else {
				tx.s.elements[g.ID] = g
			}
		}
	}
	if n > 0 {
		tx.s.order = slices.DeleteFunc(tx.s.order, func(id string) bool {
			_, ok := tx.s.elements[id]
			return !ok
		})
	}
	return n
}

func (tx *Tx) setLayer(id string, index int) {
	el := tx.s.elements[id]
	el.LayerIndex = index
	tx.s.elements[id] = el
	for _, cid := range el.Children {
		c := tx.s.elements[cid]
		c.LayerIndex = index
		tx.s.elements[cid] = c
	}
}
