package document

import (
	"fmt"
	"strings"

	"golang.org/x/image/colornames"
)

// NormalizeColor canonicalizes a CSS color: hex forms are lowercased and
// expanded to #rrggbb(aa), named colors become hex. rgb()/rgba()/hsl()
// functional forms and "transparent" pass through unchanged. The empty
// string means "no paint" and is valid.
func NormalizeColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "#") {
		hex := lower[1:]
		if !isHex(hex) {
			return s, false
		}
		switch len(hex) {
		case 3, 4:
			var b strings.Builder
			b.WriteByte('#')
			for _, c := range hex {
				b.WriteRune(c)
				b.WriteRune(c)
			}
			return b.String(), true
		case 6, 8:
			return lower, true
		}
		return s, false
	}

	if lower == "transparent" {
		return lower, true
	}
	for _, fn := range []string{"rgb(", "rgba(", "hsl(", "hsla("} {
		if strings.HasPrefix(lower, fn) && strings.HasSuffix(lower, ")") {
			return lower, true
		}
	}

	if c, ok := colornames.Map[lower]; ok {
		if c.A == 0xff {
			return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), true
		}
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A), true
	}
	return s, false
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
