package kit

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/fauxgl"
)

// ErrInvalidColor is returned by ParseHex for anything that is not #rrggbb.
var ErrInvalidColor = errors.New("invalid hex color")

// RGB is an 8 bit per channel color without alpha.
type RGB struct {
	R, G, B uint8
}

// HexToRGB converts "#rrggbb" or "rrggbb" into channels.
// The input is not validated, callers must only pass well formed colors.
func HexToRGB(hex string) RGB {
	c := fauxgl.HexColor(hex)
	return RGB{
		R: toByte(c.R),
		G: toByte(c.G),
		B: toByte(c.B),
	}
}

// ParseHex is HexToRGB with validation, for untrusted input.
func ParseHex(hex string) (RGB, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
		}
	}
	return HexToRGB(s), nil
}

// Hex returns the lower-case "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Color converts to an opaque fauxgl color.
func (c RGB) Color() fauxgl.Color {
	return fauxgl.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: 1,
	}
}

// normalizeHex returns hex in "#rrggbb" lower-case form, or hex unchanged if empty.
func normalizeHex(hex string) string {
	if hex == "" {
		return ""
	}
	return "#" + strings.ToLower(strings.TrimPrefix(hex, "#"))
}

func toByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v*255))))
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
