package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA display color.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorYellow = Color{R: 255, G: 235, B: 4, A: 255}
	ColorRed    = Color{R: 255, A: 255}
	ColorBlue   = Color{B: 255, A: 255}
	ColorWhite  = Color{R: 255, G: 255, B: 255, A: 255}
)

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
