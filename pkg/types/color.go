package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseColor accepts "#RRGGBB", "#RRGGBBAA" or "r,g,b[,a]". A missing alpha
// channel means fully opaque.
func ParseColor(s string) (RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.Contains(s, ",") {
		return parseDecimalColor(s)
	}
	return RGBA{}, errors.Errorf("invalid color %q", s)
}

// ParseColorOr is ParseColor with a fallback for invalid input.
func ParseColorOr(s string, fallback RGBA) RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// Hex formats the colour as "#RRGGBBAA".
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func parseHexColor(h string) (RGBA, error) {
	switch len(h) {
	case 6:
		h += "FF"
	case 8:
	default:
		return RGBA{}, errors.Errorf("invalid hex color #%s", h)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, errors.Wrapf(err, "invalid hex color #%s", h)
	}

	return RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

func parseDecimalColor(s string) (RGBA, error) {
	parts := strings.Split(strings.ReplaceAll(s, " ", ""), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, errors.Errorf("invalid color %q: want 3 or 4 components", s)
	}

	var vals [4]uint8
	vals[3] = 255
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return RGBA{}, errors.Errorf("invalid color component %q", p)
		}
		vals[i] = uint8(n)
	}

	return RGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}
