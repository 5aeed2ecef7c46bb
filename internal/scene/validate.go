package scene

import (
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
)

// Validate checks every structural invariant of the scene:
//   - each element is well formed and sits on an existing layer
//   - group membership is bidirectional, groups are non-empty, never nested
//     and never contain themselves, and children share the group's layer
//   - order lists each top-level element exactly once and nothing else
func (s *Scene) Validate() error {
	if len(s.layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvariant)
	}

	for id, el := range s.elements {
		if el.ID != id {
			return fmt.Errorf("%w: element keyed %s has id %s", ErrInvariant, id, el.ID)
		}
		if err := el.Check(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		if el.LayerIndex < 0 || el.LayerIndex >= len(s.layers) {
			return fmt.Errorf("%w: element %s on missing layer %d", ErrInvariant, id, el.LayerIndex)
		}

		if el.Type == document.TypeGroup {
			if el.GroupID != "" {
				return fmt.Errorf("%w: group %s is nested", ErrInvariant, id)
			}
			if len(el.Children) == 0 {
				return fmt.Errorf("%w: group %s is empty", ErrInvariant, id)
			}
			seen := make(map[string]struct{}, len(el.Children))
			for _, cid := range el.Children {
				if cid == id {
					return fmt.Errorf("%w: group %s contains itself", ErrInvariant, id)
				}
				if _, dup := seen[cid]; dup {
					return fmt.Errorf("%w: group %s lists %s twice", ErrInvariant, id, cid)
				}
				seen[cid] = struct{}{}
				c, ok := s.elements[cid]
				if !ok {
					return fmt.Errorf("%w: group %s lists missing child %s", ErrInvariant, id, cid)
				}
				if c.GroupID != id {
					return fmt.Errorf("%w: child %s of %s points at %q", ErrInvariant, cid, id, c.GroupID)
				}
				if c.LayerIndex != el.LayerIndex {
					return fmt.Errorf("%w: child %s is on another layer than group %s", ErrInvariant, cid, id)
				}
			}
			continue
		}

		if el.GroupID != "" {
			g, ok := s.elements[el.GroupID]
			if !ok || g.Type != document.TypeGroup {
				return fmt.Errorf("%w: element %s points at missing group %s", ErrInvariant, id, el.GroupID)
			}
			found := false
			for _, cid := range g.Children {
				if cid == id {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: group %s does not list %s", ErrInvariant, el.GroupID, id)
			}
		}
	}

	inOrder := make(map[string]struct{}, len(s.order))
	for _, id := range s.order {
		el, ok := s.elements[id]
		if !ok {
			return fmt.Errorf("%w: order lists missing element %s", ErrInvariant, id)
		}
		if el.GroupID != "" {
			return fmt.Errorf("%w: order lists grouped element %s", ErrInvariant, id)
		}
		if _, dup := inOrder[id]; dup {
			return fmt.Errorf("%w: order lists %s twice", ErrInvariant, id)
		}
		inOrder[id] = struct{}{}
	}
	for id, el := range s.elements {
		if el.GroupID == "" {
			if _, ok := inOrder[id]; !ok {
				return fmt.Errorf("%w: %s missing from order", ErrInvariant, id)
			}
		}
	}
	return nil
}
