package protocol

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cardstudio/cardstudio/internal/editor"
)

func newController() *editor.Controller {
	return editor.New(editor.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func msg(typ, payload string) Message {
	m := Message{Type: typ}
	if payload != "" {
		m.Payload = json.RawMessage(payload)
	}
	return m
}

func TestApplySaveRequests(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		save bool
	}{
		{"save", msg(TypeSave, ""), true},
		{"ctrl+s", msg(TypeKey, `{"key":"s","ctrl":true}`), true},
		{"ctrl+s in text field", msg(TypeKey, `{"key":"s","ctrl":true,"textFocus":true}`), false},
		{"undo key", msg(TypeKey, `{"key":"z","ctrl":true}`), false},
		{"add", msg(TypeElementAdd, `{"shape":"text"}`), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			save, err := Apply(newController(), c.msg)
			if err != nil || save != c.save {
				t.Fatalf("Apply = %v, %v; want save %v", save, err, c.save)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want error
	}{
		{"unknown", msg("teleport", ""), ErrUnknownType},
		{"not json", msg(TypePointerDown, `{"x":`), ErrBadPayload},
		{"bad tool", msg(TypeToolSet, `{"tool":"spray"}`), ErrBadPayload},
		{"bad dir", msg(TypeLayerMove, `{"index":0,"dir":0}`), ErrBadPayload},
		{"image without src", msg(TypeElementImage, `{"naturalWidth":10}`), ErrBadPayload},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Apply(newController(), c.msg); !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}

func TestApplyEditsController(t *testing.T) {
	c := newController()
	steps := []Message{
		msg(TypeElementAdd, `{"shape":"rect"}`),
		msg(TypeElementAdd, `{"shape":"ellipse"}`),
		msg(TypeKey, `{"key":"a","ctrl":true}`),
		msg(TypeElementGroup, ""),
		msg(TypeElementRotate, `{"degrees":30}`),
		msg(TypeLayerAdd, ""),
		msg(TypeElementToLayer, `{"index":1}`),
		msg(TypeBackgroundSet, `{"color":"tomato"}`),
		msg(TypeToolSet, `{"tool":"brush"}`),
		msg(TypeStyleSet, `{"stroke":"#ff0000","strokeWidth":6,"background":"#ffffff"}`),
		msg(TypePointerDown, `{"x":10,"y":10}`),
		msg(TypePointerMove, `{"x":40,"y":30}`),
		msg(TypePointerUp, `{"x":60,"y":50}`),
	}
	for i, m := range steps {
		if _, err := Apply(c, m); err != nil {
			t.Fatalf("step %d (%s): %v", i, m.Type, err)
		}
	}

	doc := c.Document()
	if doc.BackgroundColor != "#ff6347" || len(doc.Layers) != 2 {
		t.Fatalf("background %q layers %d", doc.BackgroundColor, len(doc.Layers))
	}
	var group, line int
	for _, el := range doc.Elements {
		switch el.Type {
		case "group":
			group++
			if el.LayerIndex != 1 || el.Rotation != 30 {
				t.Fatalf("group = %+v", el)
			}
		case "line":
			line++
			if el.Stroke != "#ff0000" || el.StrokeWidth != 6 {
				t.Fatalf("stroke = %+v", el)
			}
		}
	}
	if group != 1 || line != 1 {
		t.Fatalf("groups %d lines %d in %+v", group, line, doc.Elements)
	}
}
