package imageproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidBuffer(t *testing.T, w, h int, p Pixel) *Buffer {
	t.Helper()

	buf, err := NewBuffer(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.NoError(t, buf.Set(x, y, p))
		}
	}
	return buf
}

// gradientBuffer gives every pixel a distinct color so sampling mistakes show up.
func gradientBuffer(t *testing.T, w, h int) *Buffer {
	t.Helper()

	buf, err := NewBuffer(w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.NoError(t, buf.Set(x, y, RGB(uint8(x*17), uint8(y*13), uint8(x+y))))
		}
	}
	return buf
}

func mustAt(t *testing.T, b *Buffer, x, y int) Pixel {
	t.Helper()

	p, err := b.At(x, y)
	require.NoError(t, err)
	return p
}

func TestComposite_SingleScenario(t *testing.T) {
	base := solidBuffer(t, 4, 4, RGB(255, 0, 0))
	mark := solidBuffer(t, 2, 2, RGB(0, 0, 255))

	out, err := Composite(base, mark, Single(1, 1), Transparency{}, BlendParams{Percent: 50})
	require.NoError(t, err)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := RGB(255, 0, 0)
			if x >= 1 && x <= 2 && y >= 1 && y <= 2 {
				want = RGB(127, 0, 127)
			}
			require.Equal(t, want, mustAt(t, out, x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestComposite_GridScenario(t *testing.T) {
	base := solidBuffer(t, 4, 4, RGB(255, 0, 0))
	mark := solidBuffer(t, 2, 2, RGB(0, 0, 255))

	out, err := Composite(base, mark, Grid(), Transparency{}, BlendParams{Percent: 100})
	require.NoError(t, err)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			require.Equal(t, RGB(0, 0, 255), mustAt(t, out, x, y))
		}
	}
}

func TestComposite_Properties(t *testing.T) {
	base := gradientBuffer(t, 13, 9)
	mark := gradientBuffer(t, 4, 3)

	t.Run("pass-through outside footprint", func(t *testing.T) {
		out, err := Composite(base, mark, Single(5, 2), Transparency{}, BlendParams{Percent: 70})
		require.NoError(t, err)
		for y := 0; y < base.Height(); y++ {
			for x := 0; x < base.Width(); x++ {
				if x >= 5 && x < 9 && y >= 2 && y < 5 {
					continue
				}
				require.Equal(t, mustAt(t, base, x, y), mustAt(t, out, x, y))
			}
		}
	})

	t.Run("full opacity shows watermark", func(t *testing.T) {
		out, err := Composite(base, mark, Single(5, 2), Transparency{}, BlendParams{Percent: 100})
		require.NoError(t, err)
		for y := 2; y < 5; y++ {
			for x := 5; x < 9; x++ {
				require.Equal(t, mustAt(t, mark, x-5, y-2), mustAt(t, out, x, y))
			}
		}
	})

	t.Run("zero opacity keeps base", func(t *testing.T) {
		out, err := Composite(base, mark, Grid(), Transparency{}, BlendParams{Percent: 0})
		require.NoError(t, err)
		for y := 0; y < base.Height(); y++ {
			for x := 0; x < base.Width(); x++ {
				require.Equal(t, mustAt(t, base, x, y), mustAt(t, out, x, y))
			}
		}
	})

	t.Run("grid periodicity", func(t *testing.T) {
		flat := solidBuffer(t, 13, 9, RGB(0, 0, 0))
		out, err := Composite(flat, mark, Grid(), Transparency{}, BlendParams{Percent: 100})
		require.NoError(t, err)
		for y := 0; y+mark.Height() < out.Height(); y++ {
			for x := 0; x+mark.Width() < out.Width(); x++ {
				require.Equal(t, mustAt(t, out, x, y), mustAt(t, out, x+mark.Width(), y))
				require.Equal(t, mustAt(t, out, x, y), mustAt(t, out, x, y+mark.Height()))
				require.Equal(t, mustAt(t, mark, x%4, y%3), mustAt(t, out, x, y))
			}
		}
	})

	t.Run("dimension invariance", func(t *testing.T) {
		for _, p := range []Placement{Grid(), Single(0, 0), Single(9, 6)} {
			out, err := Composite(base, mark, p, Transparency{}, BlendParams{Percent: 40})
			require.NoError(t, err)
			require.Equal(t, base.Width(), out.Width())
			require.Equal(t, base.Height(), out.Height())
			require.False(t, out.HasAlpha())
		}
	})
}

func TestComposite_ColorKey(t *testing.T) {
	base := gradientBuffer(t, 6, 6)
	mark := solidBuffer(t, 3, 3, RGB(0, 255, 0))
	require.NoError(t, mark.Set(1, 1, RGB(10, 20, 30)))

	for _, percent := range []int{0, 35, 100} {
		out, err := Composite(base, mark, Grid(), ColorKey(RGB(0, 255, 0)), BlendParams{Percent: percent})
		require.NoError(t, err)
		for y := 0; y < 6; y++ {
			for x := 0; x < 6; x++ {
				if x%3 == 1 && y%3 == 1 {
					continue
				}
				require.Equal(t, mustAt(t, base, x, y), mustAt(t, out, x, y))
			}
		}
	}

	out, err := Composite(base, mark, Grid(), ColorKey(RGB(0, 255, 0)), BlendParams{Percent: 100})
	require.NoError(t, err)
	require.Equal(t, RGB(10, 20, 30), mustAt(t, out, 4, 4))
}

func TestComposite_AlphaChannel(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 200})
	mark, err := FromImage(src, true)
	require.NoError(t, err)
	base := solidBuffer(t, 2, 1, RGB(255, 0, 0))

	out, err := Composite(base, mark, Single(0, 0), AlphaChannel(), BlendParams{Percent: 100})
	require.NoError(t, err)
	require.Equal(t, RGB(255, 0, 0), mustAt(t, out, 0, 0))
	require.Equal(t, RGB(0, 0, 255), mustAt(t, out, 1, 0))

	// alpha ignored unless requested
	out, err = Composite(base, mark, Single(0, 0), Transparency{}, BlendParams{Percent: 100})
	require.NoError(t, err)
	require.Equal(t, RGB(0, 0, 255), mustAt(t, out, 0, 0))
}

func TestComposite_WorkerCounts(t *testing.T) {
	base := gradientBuffer(t, 17, 23)
	mark := gradientBuffer(t, 5, 4)

	want, err := NewCompositor(1).Composite(base, mark, Grid(), Transparency{}, BlendParams{Percent: 61})
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 7, 23, 64} {
		c := NewCompositor(workers)
		require.Positive(t, c.Workers())
		got, err := c.Composite(base, mark, Grid(), Transparency{}, BlendParams{Percent: 61})
		require.NoError(t, err)
		require.Equal(t, want.Image().Pix, got.Image().Pix, "workers=%d", workers)
	}
}

func TestComposite_Errors(t *testing.T) {
	base := solidBuffer(t, 4, 4, RGB(1, 1, 1))
	mark := solidBuffer(t, 2, 2, RGB(2, 2, 2))

	_, err := Composite(base, mark, Single(3, 0), Transparency{}, BlendParams{Percent: 50})
	require.ErrorIs(t, err, ErrInvalidPlacement)

	_, err = Composite(base, mark, Grid(), Transparency{}, BlendParams{Percent: 101})
	require.ErrorIs(t, err, ErrInvalidPercent)

	_, err = Composite(nil, mark, Grid(), Transparency{}, BlendParams{Percent: 1})
	require.Error(t, err)
}
