package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixCard    = "card"
	PrefixElement = "el"
	PrefixLayer   = "layer"
)

// New returns a fresh typeid string such as "card_01h455vb4pex5vsknk084sn02q".
func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewCardID() string    { return New(PrefixCard) }
func NewElementID() string { return New(PrefixElement) }
func NewLayerID() string   { return New(PrefixLayer) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
