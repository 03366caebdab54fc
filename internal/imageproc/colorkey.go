package imageproc

import (
	"fmt"
	"strconv"
	"strings"
)

// Transparency selects which watermark pixels are skipped entirely.
// UseAlpha applies only to pixels that carry an alpha channel; ColorKey compares RGB and ignores alpha.
type Transparency struct {
	UseAlpha bool
	ColorKey *Pixel
}

// AlphaChannel masks fully transparent pixels of an alpha-carrying watermark.
func AlphaChannel() Transparency {
	return Transparency{UseAlpha: true}
}

// ColorKey masks watermark pixels whose RGB equals key.
func ColorKey(key Pixel) Transparency {
	return Transparency{ColorKey: &key}
}

// IsTransparent reports whether p must leave the base pixel untouched.
func (t Transparency) IsTransparent(p Pixel) bool {
	switch {
	case t.UseAlpha && p.HasAlpha:
		return p.A == 0
	case t.ColorKey != nil:
		return p.R == t.ColorKey.R && p.G == t.ColorKey.G && p.B == t.ColorKey.B
	default:
		return false
	}
}

// ParseColorKey reads an "R G B" triple of 0-255 integers separated by whitespace.
func ParseColorKey(s string) (Pixel, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Pixel{}, fmt.Errorf("%w: want 3 values, got %d", ErrInvalidColorKey, len(fields))
	}
	var rgb [3]uint8
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v > 255 {
			return Pixel{}, fmt.Errorf("%w: %q", ErrInvalidColorKey, f)
		}
		rgb[i] = uint8(v)
	}
	return RGB(rgb[0], rgb[1], rgb[2]), nil
}
