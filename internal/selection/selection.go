// Package selection tracks the selected element ids and resolves pointer
// positions to elements.
package selection

import (
	"slices"

	"github.com/cardstudio/cardstudio/internal/geom"
	"github.com/cardstudio/cardstudio/internal/scene"
)

// Selection is an ordered set of element ids. The first id is the primary
// selection. The zero value is empty and ready to use.
type Selection struct {
	ids []string
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.ids) }

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Empty() bool { return len(s.ids) == 0 }

func (s *Selection) Contains(id string) bool { return slices.Contains(s.ids, id) }

// Primary returns the first selected id.
func (s *Selection) Primary() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[0], true
}

func (s *Selection) Clear() { s.ids = nil }

// Set replaces the selection with the selectable subset of ids.
func (s *Selection) Set(sc *scene.Scene, ids []string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if selectable(sc, id) && !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Toggle applies click semantics. Without additive the selection becomes
// just id; with additive id is added or removed (shift-click). Elements
// that are missing or on a locked layer are rejected and the selection is
// left untouched. Reports whether the selection changed.
func (s *Selection) Toggle(sc *scene.Scene, id string, additive bool) bool {
	if !selectable(sc, id) {
		return false
	}
	if !additive {
		if len(s.ids) == 1 && s.ids[0] == id {
			return false
		}
		s.ids = []string{id}
		return true
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return true
	}
	s.ids = append(s.ids, id)
	return true
}

// Prune drops ids that no longer exist or whose layer became locked.
// Reports whether anything was dropped.
func (s *Selection) Prune(sc *scene.Scene) bool {
	n := len(s.ids)
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !selectable(sc, id) })
	return len(s.ids) != n
}

func selectable(sc *scene.Scene, id string) bool {
	el, ok := sc.Get(id)
	if !ok {
		return false
	}
	return !sc.LayerLocked(el.LayerIndex)
}

// HitTest returns the topmost top-level element under a stage point,
// scanning from the last painted element backwards and skipping hidden and
// locked layers. Clicking a grouped element yields its group.
func HitTest(sc *scene.Scene, p geom.Point) (string, bool) {
	order := sc.RenderOrder()
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		el, _ := sc.Get(id)
		if !sc.LayerVisible(el.LayerIndex) || sc.LayerLocked(el.LayerIndex) {
			continue
		}
		if sc.Contains(id, p) {
			return id, true
		}
	}
	return "", false
}

// InRect returns every top-level element on a visible, unlocked layer whose
// bounds intersect r, in paint order. Used for marquee selection.
func InRect(sc *scene.Scene, r geom.Rect) []string {
	r = r.Normalize()
	var out []string
	for _, id := range sc.RenderOrder() {
		el, _ := sc.Get(id)
		if !sc.LayerVisible(el.LayerIndex) || sc.LayerLocked(el.LayerIndex) {
			continue
		}
		if sc.Bounds(id).Intersects(r) {
			out = append(out, id)
		}
	}
	return out
}

// Bounds returns the union of the selected elements' stage bounds.
func Bounds(sc *scene.Scene, ids []string) geom.Rect {
	rects := make([]geom.Rect, 0, len(ids))
	for _, id := range ids {
		if sc.Has(id) {
			rects = append(rects, sc.Bounds(id))
		}
	}
	return geom.UnionAll(rects)
}
