package scene

import (
	"fmt"
	"slices"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/geom"
)

// Group and Ungroup (and AddGroup) are the only writers of GroupID and
// Children, which keeps membership bidirectional.

// placement is the part of an element that grouping rewrites.
type placement struct {
	X, Y, Rotation, ScaleX, ScaleY float64
}

func placementOf(el document.Element) placement {
	return placement{el.X, el.Y, el.Rotation, el.ScaleX, el.ScaleY}
}

func (p placement) applyTo(el *document.Element) {
	el.X, el.Y, el.Rotation, el.ScaleX, el.ScaleY = p.X, p.Y, p.Rotation, p.ScaleX, p.ScaleY
}

// groupPin remembers where members stood before grouping. Converting to
// group space and back is not exact in floating point, so Ungroup puts a
// member back at its pinned stage placement when neither it nor the group
// has moved since.
type groupPin struct {
	group   placement
	members map[string]memberPin
}

type memberPin struct {
	local, stage placement
}

// Group makes the group element g the owner of members. Members must be
// distinct, ungrouped, non-group elements on one layer; g takes that layer
// and the z-position of its topmost member. Member coordinates are rewritten
// relative to g's origin.
func (tx *Tx) Group(g document.Element, members []string) error {
	if g.Type != document.TypeGroup {
		return fmt.Errorf("%w: %s is not a group", ErrInvalidElement, g.ID)
	}
	if g.ID == "" {
		return fmt.Errorf("%w: missing group id", ErrInvalidElement)
	}
	if _, dup := tx.s.elements[g.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, g.ID)
	}
	if len(members) < 2 {
		return fmt.Errorf("%w: a group needs at least two members", ErrInvalidElement)
	}

	pos := make(map[string]int, len(tx.s.order))
	for i, id := range tx.s.order {
		pos[id] = i
	}
	layer := -1
	seen := make(map[string]struct{}, len(members))
	for _, id := range members {
		if id == g.ID {
			return fmt.Errorf("%w: group cannot contain itself", ErrInvalidElement)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidElement, id)
		}
		seen[id] = struct{}{}
		el, ok := tx.s.elements[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if el.GroupID != "" || el.Type == document.TypeGroup {
			return fmt.Errorf("%w: %s is already grouped or a group", ErrInvalidElement, id)
		}
		if layer == -1 {
			layer = el.LayerIndex
		} else if el.LayerIndex != layer {
			return fmt.Errorf("%w: members span layers", ErrInvalidLayer)
		}
	}

	children := slices.Clone(members)
	slices.SortFunc(children, func(a, b string) int { return pos[a] - pos[b] })

	g = g.Clone()
	g.LayerIndex = layer
	g.GroupID = ""
	g.Children = children
	g.Normalize()
	if err := g.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}

	inv := g.Matrix().Invert()
	pin := groupPin{group: placementOf(g), members: make(map[string]memberPin, len(children))}
	for _, id := range children {
		el := tx.s.elements[id].Clone()
		stage := placementOf(el)
		p := inv.Apply(geom.Point{X: el.X, Y: el.Y})
		el.X, el.Y = p.X, p.Y
		el.Rotation -= g.Rotation
		el.ScaleX /= g.ScaleX
		el.ScaleY /= g.ScaleY
		el.GroupID = g.ID
		el.Normalize()
		tx.s.elements[id] = el
		pin.members[id] = memberPin{local: placementOf(el), stage: stage}
	}
	tx.s.elements[g.ID] = g
	if tx.s.pins == nil {
		tx.s.pins = make(map[string]groupPin)
	}
	tx.s.pins[g.ID] = pin

	top := pos[children[len(children)-1]]
	order := make([]string, 0, len(tx.s.order)-len(children)+1)
	for i, id := range tx.s.order {
		if _, member := seen[id]; !member {
			order = append(order, id)
		}
		if i == top {
			order = append(order, g.ID)
		}
	}
	tx.s.order = order
	return nil
}

// Ungroup dissolves a group. Each child gets the group's transform baked
// into its own, which for an unrotated, unscaled group is child + group
// origin. Children take the group's z-position, in child order.
func (tx *Tx) Ungroup(groupID string) ([]string, error) {
	g, ok := tx.s.elements[groupID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, groupID)
	}
	if g.Type != document.TypeGroup {
		return nil, fmt.Errorf("%w: %s is not a group", ErrInvalidElement, groupID)
	}

	m := g.Matrix()
	pin, pinned := tx.s.pins[groupID]
	pinned = pinned && pin.group == placementOf(g)
	children := slices.Clone(g.Children)
	for _, id := range children {
		el := tx.s.elements[id].Clone()
		if mp, ok := pin.members[id]; pinned && ok && mp.local == placementOf(el) {
			mp.stage.applyTo(&el)
		} else {
			p := m.Apply(geom.Point{X: el.X, Y: el.Y})
			el.X, el.Y = p.X, p.Y
			el.Rotation += g.Rotation
			el.ScaleX *= g.ScaleX
			el.ScaleY *= g.ScaleY
		}
		el.GroupID = ""
		el.LayerIndex = g.LayerIndex
		el.Normalize()
		tx.s.elements[id] = el
	}
	delete(tx.s.elements, groupID)
	delete(tx.s.pins, groupID)

	order := make([]string, 0, len(tx.s.order)+len(children)-1)
	for _, id := range tx.s.order {
		if id == groupID {
			order = append(order, children...)
			continue
		}
		order = append(order, id)
	}
	tx.s.order = order
	return children, nil
}

// AddGroup inserts a group together with its children, whose coordinates
// are already relative to g. Used to paste or duplicate whole groups.
func (tx *Tx) AddGroup(g document.Element, children []document.Element) error {
	if g.Type != document.TypeGroup {
		return fmt.Errorf("%w: %s is not a group", ErrInvalidElement, g.ID)
	}
	if len(children) == 0 {
		return fmt.Errorf("%w: empty group", ErrInvalidElement)
	}
	if g.LayerIndex < 0 || g.LayerIndex >= len(tx.s.layers) {
		return fmt.Errorf("%w: %d", ErrInvalidLayer, g.LayerIndex)
	}
	ids := make([]string, 0, len(children))
	for _, c := range children {
		if _, dup := tx.s.elements[c.ID]; dup || c.ID == g.ID || slices.Contains(ids, c.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		if c.Type == document.TypeGroup {
			return fmt.Errorf("%w: nested group %s", ErrInvalidElement, c.ID)
		}
		ids = append(ids, c.ID)
	}
	if _, dup := tx.s.elements[g.ID]; dup || g.ID == "" {
		return fmt.Errorf("%w: %q", ErrDuplicateID, g.ID)
	}

	g = g.Clone()
	g.GroupID = ""
	g.Children = ids
	g.Normalize()
	if err := g.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	for _, c := range children {
		c = c.Clone()
		c.GroupID = g.ID
		c.LayerIndex = g.LayerIndex
		c.Children = nil
		c.Normalize()
		if err := c.Check(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidElement, err)
		}
		tx.s.elements[c.ID] = c
	}
	tx.s.elements[g.ID] = g
	tx.s.order = append(tx.s.order, g.ID)
	return nil
}
