package imageproc

import (
	"fmt"
	"strings"
)

type PlacementMode string

const (
	PlaceSingle PlacementMode = "single"
	PlaceGrid   PlacementMode = "grid"
)

// ParsePlacementMode accepts "single" or "grid" in any case.
func ParsePlacementMode(s string) (PlacementMode, error) {
	switch m := PlacementMode(strings.ToLower(strings.TrimSpace(s))); m {
	case PlaceSingle, PlaceGrid:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown position method %q", ErrInvalidPlacement, s)
	}
}

// Placement positions the watermark on the base: once at an offset, or tiled from the origin.
type Placement struct {
	Mode    PlacementMode
	OffsetX int
	OffsetY int
}

func Single(x, y int) Placement {
	return Placement{Mode: PlaceSingle, OffsetX: x, OffsetY: y}
}

func Grid() Placement {
	return Placement{Mode: PlaceGrid}
}

// Resolve maps base coordinate (x,y) to the watermark pixel sampled there.
// ok is false when the point lies outside the watermark footprint.
func (p Placement) Resolve(x, y, markW, markH int) (wx, wy int, ok bool) {
	if markW <= 0 || markH <= 0 {
		return 0, 0, false
	}
	switch p.Mode {
	case PlaceGrid:
		return x % markW, y % markH, true
	case PlaceSingle:
		wx, wy = x-p.OffsetX, y-p.OffsetY
		if wx < 0 || wy < 0 || wx >= markW || wy >= markH {
			return 0, 0, false
		}
		return wx, wy, true
	default:
		return 0, 0, false
	}
}

// Validate checks that the placement keeps the watermark inside a baseW x baseH image.
func (p Placement) Validate(baseW, baseH, markW, markH int) error {
	switch p.Mode {
	case PlaceGrid:
		return nil
	case PlaceSingle:
		maxX, maxY := baseW-markW, baseH-markH
		if p.OffsetX < 0 || p.OffsetY < 0 || p.OffsetX > maxX || p.OffsetY > maxY {
			return fmt.Errorf("%w: (%d,%d) not within [0-%d] x [0-%d]", ErrInvalidPlacement, p.OffsetX, p.OffsetY, maxX, maxY)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown position method %q", ErrInvalidPlacement, p.Mode)
	}
}
