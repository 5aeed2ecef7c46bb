package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/cardstudio/cardstudio/internal/typeid"
)

// ErrMalformed is returned when a design payload cannot be turned into a
// usable document.
var ErrMalformed = errors.New("malformed design document")

// Load parses a design payload. It accepts the full document shape or a
// legacy bare array of elements, and fills in whatever is missing: canvas
// size, background, layers, ids and names. Group membership is repaired
// from the groups' children lists.
func Load(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}

	var doc Document
	if data[0] == '[' {
		if err := json.Unmarshal(data, &doc.Elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for i := range doc.Elements {
			doc.Elements[i].LayerIndex = 0
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := doc.fill(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) fill() error {
	if d.Width <= 0 {
		d.Width = DefaultWidth
	}
	if d.Height <= 0 {
		d.Height = DefaultHeight
	}
	if bg, ok := NormalizeColor(d.BackgroundColor); ok && bg != "" {
		d.BackgroundColor = bg
	} else {
		d.BackgroundColor = DefaultBackground
	}

	if len(d.Layers) == 0 {
		d.Layers = []Layer{DefaultLayer(typeid.NewLayerID(), 0)}
	}
	for i := range d.Layers {
		if d.Layers[i].ID == "" {
			d.Layers[i].ID = typeid.NewLayerID()
		}
		if d.Layers[i].Name == "" {
			d.Layers[i].Name = LayerName(i)
		}
	}

	if d.Elements == nil {
		d.Elements = []Element{}
	}
	seen := make(map[string]int, len(d.Elements))
	for i := range d.Elements {
		el := &d.Elements[i]
		if el.ID == "" {
			el.ID = typeid.NewElementID()
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("%w: duplicate element id %s", ErrMalformed, el.ID)
		}
		seen[el.ID] = i
		if !el.Type.Valid() {
			return fmt.Errorf("%w: element %s has unknown type %q", ErrMalformed, el.ID, el.Type)
		}
		if el.LayerIndex < 0 {
			el.LayerIndex = 0
		}
		if el.LayerIndex >= len(d.Layers) {
			el.LayerIndex = len(d.Layers) - 1
		}
		if !el.Filter.Valid() {
			el.Filter = FilterNone
		}
		if c, ok := NormalizeColor(el.Fill); ok {
			el.Fill = c
		}
		if c, ok := NormalizeColor(el.Stroke); ok {
			el.Stroke = c
		}
		el.Normalize()
		if err := el.Check(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	d.repairGroups(seen)
	return nil
}

// repairGroups makes group membership bidirectional, trusting the groups'
// children lists. Children missing from the document are dropped, and a
// child claimed by two groups stays with the first.
func (d *Document) repairGroups(index map[string]int) {
	owner := make(map[string]string)
	for i := range d.Elements {
		g := &d.Elements[i]
		if g.Type != TypeGroup {
			continue
		}
		kept := g.Children[:0]
		for _, cid := range g.Children {
			j, ok := index[cid]
			if !ok || cid == g.ID {
				continue
			}
			if _, taken := owner[cid]; taken {
				continue
			}
			if d.Elements[j].Type == TypeGroup {
				// nested groups are not supported
				continue
			}
			owner[cid] = g.ID
			kept = append(kept, cid)
		}
		g.Children = kept
	}
	for i := range d.Elements {
		el := &d.Elements[i]
		if el.Type == TypeGroup {
			el.GroupID = ""
			continue
		}
		el.GroupID = owner[el.ID]
		if el.GroupID != "" {
			el.LayerIndex = d.Elements[index[el.GroupID]].LayerIndex
		}
	}
	d.Elements = slices.DeleteFunc(d.Elements, func(el Element) bool {
		return el.Type == TypeGroup && len(el.Children) == 0
	})
}

// Marshal serializes the document as the editor's save payload.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal design: %w", err)
	}
	return data, nil
}
