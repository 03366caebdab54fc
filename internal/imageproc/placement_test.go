package imageproc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlacement_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		placement Placement
		x, y      int
		wantX     int
		wantY     int
		wantOK    bool
	}{
		{"single inside", Single(1, 1), 2, 2, 1, 1, true},
		{"single origin", Single(1, 1), 1, 1, 0, 0, true},
		{"single left of mark", Single(1, 1), 0, 1, 0, 0, false},
		{"single above mark", Single(1, 1), 1, 0, 0, 0, false},
		{"single right edge", Single(1, 1), 3, 1, 0, 0, false},
		{"single bottom edge", Single(1, 1), 1, 3, 0, 0, false},
		{"grid first tile", Grid(), 1, 0, 1, 0, true},
		{"grid wraps", Grid(), 5, 7, 1, 1, true},
		{"unknown mode", Placement{Mode: "diagonal"}, 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wx, wy, ok := tt.placement.Resolve(tt.x, tt.y, 2, 2)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.wantX, wx)
				require.Equal(t, tt.wantY, wy)
			}
		})
	}
}

func TestPlacement_GridPeriodicity(t *testing.T) {
	const w, h = 3, 2
	g := Grid()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			wx, wy, ok := g.Resolve(x, y, w, h)
			require.True(t, ok)
			rx, ry, _ := g.Resolve(x+w, y, w, h)
			dx, dy, _ := g.Resolve(x, y+h, w, h)
			require.Equal(t, [2]int{wx, wy}, [2]int{rx, ry})
			require.Equal(t, [2]int{wx, wy}, [2]int{dx, dy})
		}
	}
}

func TestPlacement_Validate(t *testing.T) {
	tests := []struct {
		name      string
		placement Placement
		wantErr   bool
	}{
		{"grid", Grid(), false},
		{"single origin", Single(0, 0), false},
		{"single max corner", Single(2, 2), false},
		{"single x over", Single(3, 0), true},
		{"single y over", Single(0, 3), true},
		{"single negative", Single(-1, 0), true},
		{"unknown mode", Placement{Mode: "diagonal"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.placement.Validate(4, 4, 2, 2)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPlacement)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParsePlacementMode(t *testing.T) {
	m, err := ParsePlacementMode(" Grid ")
	require.NoError(t, err)
	require.Equal(t, PlaceGrid, m)

	m, err = ParsePlacementMode("single")
	require.NoError(t, err)
	require.Equal(t, PlaceSingle, m)

	_, err = ParsePlacementMode("center")
	require.ErrorIs(t, err, ErrInvalidPlacement)
}
