// Package layers edits the ordered layer list of a scene. Every operation
// returns a new scene and leaves the input untouched.
package layers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/scene"
)

var (
	// ErrLastLayer is returned when deleting the only layer.
	ErrLastLayer = errors.New("cannot delete the last layer")
	// ErrIndex is returned for a layer index or move target out of range.
	ErrIndex = errors.New("layer index out of range")
)

// Direction moves a layer one slot up (towards the front) or down.
type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

func keep(i int) (int, bool) { return i, true }

func check(sc *scene.Scene, index int) error {
	if index < 0 || index >= sc.LayerCount() {
		return fmt.Errorf("%w: %d", ErrIndex, index)
	}
	return nil
}

// Add appends a visible, unlocked layer on top and returns its index.
func Add(sc *scene.Scene, id string) (*scene.Scene, int, error) {
	ls := sc.Layers()
	index := len(ls)
	ls = append(ls, document.DefaultLayer(id, index))
	out, err := sc.ReplaceLayers(ls, keep)
	if err != nil {
		return sc, 0, err
	}
	return out, index, nil
}

func update(sc *scene.Scene, index int, fn func(l *document.Layer)) (*scene.Scene, error) {
	if err := check(sc, index); err != nil {
		return sc, err
	}
	ls := sc.Layers()
	fn(&ls[index])
	return sc.ReplaceLayers(ls, keep)
}

// ToggleVisibility shows or hides a layer.
func ToggleVisibility(sc *scene.Scene, index int) (*scene.Scene, error) {
	return update(sc, index, func(l *document.Layer) { l.Visible = !l.Visible })
}

// ToggleLock locks or unlocks a layer.
func ToggleLock(sc *scene.Scene, index int) (*scene.Scene, error) {
	return update(sc, index, func(l *document.Layer) { l.Locked = !l.Locked })
}

// Rename sets a layer's display name. A blank name restores the default.
func Rename(sc *scene.Scene, index int, name string) (*scene.Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = document.LayerName(index)
	}
	return update(sc, index, func(l *document.Layer) { l.Name = name })
}

// Move swaps a layer with its neighbour in dir and rewrites the layer
// index of every element on either slot. It returns the layer's new index.
func Move(sc *scene.Scene, index int, dir Direction) (*scene.Scene, int, error) {
	if err := check(sc, index); err != nil {
		return sc, index, err
	}
	to := index + int(dir)
	if dir != Up && dir != Down || to < 0 || to >= sc.LayerCount() {
		return sc, index, fmt.Errorf("%w: cannot move %d to %d", ErrIndex, index, to)
	}
	ls := sc.Layers()
	ls[index], ls[to] = ls[to], ls[index]
	out, err := sc.ReplaceLayers(ls, func(i int) (int, bool) {
		switch i {
		case index:
			return to, true
		case to:
			return index, true
		}
		return i, true
	})
	if err != nil {
		return sc, index, err
	}
	return out, to, nil
}

// Delete removes a layer together with every element on it. Elements on
// higher layers move down one index.
func Delete(sc *scene.Scene, index int) (*scene.Scene, error) {
	if err := check(sc, index); err != nil {
		return sc, err
	}
	if sc.LayerCount() == 1 {
		return sc, ErrLastLayer
	}
	ls := sc.Layers()
	ls = append(ls[:index], ls[index+1:]...)
	return sc.ReplaceLayers(ls, func(i int) (int, bool) {
		switch {
		case i == index:
			return 0, false
		case i > index:
			return i - 1, true
		}
		return i, true
	})
}

// Clamp returns the nearest valid layer index, used to keep the active
// layer valid after deletions.
func Clamp(sc *scene.Scene, index int) int {
	return max(0, min(index, sc.LayerCount()-1))
}
