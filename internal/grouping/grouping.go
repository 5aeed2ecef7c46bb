// Package grouping composes elements into groups and dissolves them.
package grouping

import (
	"errors"
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/scene"
	"github.com/cardstudio/cardstudio/internal/selection"
)

// ErrPrecondition wraps every reason a group or ungroup was refused. The
// scene is returned unchanged alongside it.
var ErrPrecondition = errors.New("grouping precondition failed")

// Group wraps ids in a new group element with the given id. The group sits
// at the origin of the members' union bounding box and takes their layer;
// members keep their on-canvas position.
func Group(sc *scene.Scene, ids []string, groupID string) (*scene.Scene, error) {
	if len(ids) < 2 {
		return sc, fmt.Errorf("%w: need at least two elements, got %d", ErrPrecondition, len(ids))
	}
	layer := -1
	for _, id := range ids {
		el, ok := sc.Get(id)
		if !ok {
			return sc, fmt.Errorf("%w: %w", ErrPrecondition, scene.ErrNotFound)
		}
		if layer == -1 {
			layer = el.LayerIndex
		}
		if sc.LayerLocked(el.LayerIndex) {
			return sc, fmt.Errorf("%w: layer %d is locked", ErrPrecondition, el.LayerIndex)
		}
	}

	box := selection.Bounds(sc, ids)
	g := document.Element{
		ID:         groupID,
		Type:       document.TypeGroup,
		X:          box.X,
		Y:          box.Y,
		Width:      box.Width,
		Height:     box.Height,
		ScaleX:     1,
		ScaleY:     1,
		Opacity:    1,
		LayerIndex: layer,
	}
	out, err := sc.Edit(func(tx *scene.Tx) error { return tx.Group(g, ids) })
	if err != nil {
		return sc, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return out, nil
}

// Ungroup dissolves a group, restoring its children to stage coordinates.
// It returns the freed children in their stacking order.
func Ungroup(sc *scene.Scene, groupID string) (*scene.Scene, []string, error) {
	g, ok := sc.Get(groupID)
	if !ok {
		return sc, nil, fmt.Errorf("%w: %w", ErrPrecondition, scene.ErrNotFound)
	}
	if g.Type != document.TypeGroup {
		return sc, nil, fmt.Errorf("%w: %s is not a group", ErrPrecondition, groupID)
	}
	if sc.LayerLocked(g.LayerIndex) {
		return sc, nil, fmt.Errorf("%w: layer %d is locked", ErrPrecondition, g.LayerIndex)
	}
	var children []string
	out, err := sc.Edit(func(tx *scene.Tx) error {
		var err error
		children, err = tx.Ungroup(groupID)
		return err
	})
	if err != nil {
		return sc, nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	return out, children, nil
}

// Groups returns the group ids among ids, so that a mixed selection can
// be ungrouped in one go.
func Groups(sc *scene.Scene, ids []string) []string {
	var out []string
	for _, id := range ids {
		if el, ok := sc.Get(id); ok && el.Type == document.TypeGroup {
			out = append(out, id)
		}
	}
	return out
}
