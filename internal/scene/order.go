package scene

import (
	"fmt"
	"slices"
)

// ZMove selects a z-order operation.
type ZMove int

const (
	BringForward ZMove = iota
	SendBackward
	BringToFront
	SendToBack
)

func (z ZMove) String() string {
	switch z {
	case BringForward:
		return "forward"
	case SendBackward:
		return "backward"
	case BringToFront:
		return "front"
	case SendToBack:
		return "back"
	}
	return fmt.Sprintf("ZMove(%d)", int(z))
}

// ParseZMove is the inverse of ZMove.String.
func ParseZMove(s string) (ZMove, bool) {
	for _, z := range []ZMove{BringForward, SendBackward, BringToFront, SendToBack} {
		if z.String() == s {
			return z, true
		}
	}
	return 0, false
}

// Reorder restacks a top-level element among the elements of its own
// layer. Elements on other layers keep their slots in the order list, so
// cross-layer ordering never changes. Returns the receiver when the element
// is already at the requested end.
func (s *Scene) Reorder(id string, move ZMove) (*Scene, error) {
	el, ok := s.elements[id]
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if el.GroupID != "" {
		return s, fmt.Errorf("%w: %s is grouped", ErrInvalidElement, id)
	}

	// slots are the positions in order held by this layer's elements
	var slots []int
	var ids []string
	for i, oid := range s.order {
		if s.elements[oid].LayerIndex == el.LayerIndex {
			slots = append(slots, i)
			ids = append(ids, oid)
		}
	}
	at := slices.Index(ids, id)
	to := at
	switch move {
	case BringForward:
		to = min(at+1, len(ids)-1)
	case SendBackward:
		to = max(at-1, 0)
	case BringToFront:
		to = len(ids) - 1
	case SendToBack:
		to = 0
	}
	if to == at {
		return s, nil
	}

	ids = slices.Delete(ids, at, at+1)
	ids = slices.Insert(ids, to, id)

	return s.Edit(func(tx *Tx) error {
		for i, slot := range slots {
			tx.s.order[slot] = ids[i]
		}
		return nil
	})
}
