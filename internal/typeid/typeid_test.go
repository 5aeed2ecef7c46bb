package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	cases := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"card", NewCardID, PrefixCard},
		{"element", NewElementID, PrefixElement},
		{"layer", NewLayerID, PrefixLayer},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id := c.gen()
			if !strings.HasPrefix(id, c.prefix+"_") {
				t.Fatalf("id %q missing prefix %q", id, c.prefix)
			}
			if err := Validate(id, c.prefix); err != nil {
				t.Fatalf("Validate(%q): %v", id, err)
			}
		})
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	if err := Validate(NewCardID(), PrefixElement); err == nil {
		t.Fatalf("expected prefix mismatch error")
	}
	if err := Validate("not an id", PrefixCard); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewElementID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
