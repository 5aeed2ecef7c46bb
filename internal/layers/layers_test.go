package layers

import (
	"errors"
	"testing"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/scene"
)

func el(id string, layer int) document.Element {
	return document.Element{
		ID: id, Type: document.TypeRect, Width: 10, Height: 10,
		ScaleX: 1, ScaleY: 1, Opacity: 1, LayerIndex: layer,
	}
}

func threeLayers(t *testing.T) *scene.Scene {
	t.Helper()
	ls := []document.Layer{
		document.DefaultLayer("l0", 0),
		document.DefaultLayer("l1", 1),
		document.DefaultLayer("l2", 2),
	}
	sc, err := scene.New(ls, []document.Element{el("a", 0), el("b", 1), el("c", 2), el("d", 2)})
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return sc
}

func layerOf(t *testing.T, sc *scene.Scene, id string) int {
	t.Helper()
	e, ok := sc.Get(id)
	if !ok {
		t.Fatalf("%s missing", id)
	}
	return e.LayerIndex
}

func TestDeleteReindexes(t *testing.T) {
	cases := []struct {
		name    string
		index   int
		gone    []string
		wantIdx map[string]int
	}{
		{"bottom", 0, []string{"a"}, map[string]int{"b": 0, "c": 1, "d": 1}},
		{"middle", 1, []string{"b"}, map[string]int{"a": 0, "c": 1, "d": 1}},
		{"top", 2, []string{"c", "d"}, map[string]int{"a": 0, "b": 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sc := threeLayers(t)
			out, err := Delete(sc, c.index)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if out.LayerCount() != 2 {
				t.Fatalf("layer count = %d", out.LayerCount())
			}
			for _, id := range c.gone {
				if out.Has(id) {
					t.Errorf("%s survived its layer", id)
				}
			}
			for id, want := range c.wantIdx {
				if got := layerOf(t, out, id); got != want {
					t.Errorf("%s on layer %d, want %d", id, got, want)
				}
			}
			if err := out.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestDeleteLastLayer(t *testing.T) {
	sc, err := scene.New([]document.Layer{document.DefaultLayer("l0", 0)}, []document.Element{el("a", 0)})
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	out, err := Delete(sc, 0)
	if !errors.Is(err, ErrLastLayer) || out != sc {
		t.Fatalf("Delete sole layer = %v", err)
	}
	if _, err := Delete(threeLayers(t), 7); !errors.Is(err, ErrIndex) {
		t.Fatalf("out of range = %v", err)
	}
}

func TestMoveSwapsElementIndexes(t *testing.T) {
	sc := threeLayers(t)
	out, to, err := Move(sc, 1, Up)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if to != 2 {
		t.Fatalf("new index = %d", to)
	}
	if l, _ := out.Layer(2); l.ID != "l1" {
		t.Fatalf("layer 2 = %s", l.ID)
	}
	want := map[string]int{"a": 0, "b": 2, "c": 1, "d": 1}
	for id, idx := range want {
		if got := layerOf(t, out, id); got != idx {
			t.Errorf("%s on layer %d, want %d", id, got, idx)
		}
	}

	if _, _, err := Move(out, 2, Up); !errors.Is(err, ErrIndex) {
		t.Fatalf("move past top = %v", err)
	}
	if _, _, err := Move(out, 0, Down); !errors.Is(err, ErrIndex) {
		t.Fatalf("move past bottom = %v", err)
	}
}

func TestMoveThereAndBack(t *testing.T) {
	sc := threeLayers(t)
	up, _, err := Move(sc, 0, Up)
	if err != nil {
		t.Fatalf("Move up: %v", err)
	}
	back, _, err := Move(up, 1, Down)
	if err != nil {
		t.Fatalf("Move down: %v", err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if layerOf(t, back, id) != layerOf(t, sc, id) {
			t.Errorf("%s did not return to its layer", id)
		}
	}
}

func TestToggleAndRename(t *testing.T) {
	sc := threeLayers(t)
	out, err := ToggleLock(sc, 1)
	if err != nil {
		t.Fatalf("ToggleLock: %v", err)
	}
	if !out.LayerLocked(1) || sc.LayerLocked(1) {
		t.Fatalf("lock did not apply to the new scene only")
	}
	out, err = ToggleVisibility(out, 0)
	if err != nil {
		t.Fatalf("ToggleVisibility: %v", err)
	}
	if out.LayerVisible(0) {
		t.Fatalf("layer 0 still visible")
	}
	out, err = Rename(out, 2, "  Logo ")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if l, _ := out.Layer(2); l.Name != "Logo" {
		t.Fatalf("name = %q", l.Name)
	}
	out, _ = Rename(out, 2, "")
	if l, _ := out.Layer(2); l.Name != "Layer 3" {
		t.Fatalf("blank rename = %q", l.Name)
	}
	if _, err := ToggleLock(out, -1); !errors.Is(err, ErrIndex) {
		t.Fatalf("bad index = %v", err)
	}
}

func TestAdd(t *testing.T) {
	sc := threeLayers(t)
	out, idx, err := Add(sc, "l3")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	l, ok := out.Layer(idx)
	if idx != 3 || !ok || l.Name != "Layer 4" || !l.Visible || l.Locked {
		t.Fatalf("added %d %+v", idx, l)
	}
	if Clamp(out, 9) != 3 || Clamp(out, -2) != 0 {
		t.Fatalf("Clamp wrong")
	}
}
