package imageproc

import "fmt"

// BlendParams holds the watermark weight: 0 keeps the base, 100 shows the watermark only.
type BlendParams struct {
	Percent int
}

func (p BlendParams) Validate() error {
	if p.Percent < 0 || p.Percent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPercent, p.Percent)
	}
	return nil
}

// Blend mixes mark into base channel by channel with truncating integer division.
// A nil or transparent mark returns the base RGB. The result is always opaque without alpha channel.
func Blend(base Pixel, mark *Pixel, transparent bool, percent int) Pixel {
	if mark == nil || transparent {
		return RGB(base.R, base.G, base.B)
	}
	return RGB(
		mix(mark.R, base.R, percent),
		mix(mark.G, base.G, percent),
		mix(mark.B, base.B, percent),
	)
}

func mix(w, b uint8, percent int) uint8 {
	return uint8((percent*int(w) + (100-percent)*int(b)) / 100)
}
