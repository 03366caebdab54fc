package imageproc

import (
	"errors"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Compositor blends a watermark over a base image. Output rows are split into disjoint bands,
// one goroutine per band, so no output pixel is shared between workers.
type Compositor struct {
	workers int
}

// NewCompositor returns a compositor using up to workers goroutines.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewCompositor(workers int) *Compositor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Compositor{workers: workers}
}

func (c *Compositor) Workers() int { return c.workers }

// Composite produces a new opaque buffer of the base's size. Every output pixel is written once:
// resolved to a watermark sample, masked by transparency, then blended.
func (c *Compositor) Composite(base, mark *Buffer, placement Placement, transparency Transparency, params BlendParams) (*Buffer, error) {
	if base == nil || mark == nil {
		return nil, errors.New("nil buffer provided to Composite")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := placement.Validate(base.Width(), base.Height(), mark.Width(), mark.Height()); err != nil {
		return nil, err
	}

	out, err := NewBuffer(base.Width(), base.Height())
	if err != nil {
		return nil, err
	}

	// режем выход на полосы строк, каждая полоса пишется одной горутиной
	height := base.Height()
	bands := min(c.workers, height)
	step := (height + bands - 1) / bands

	p := pool.New().WithErrors().WithMaxGoroutines(bands)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		p.Go(func() error {
			return compositeRows(out, base, mark, placement, transparency, params.Percent, y0, y1)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func compositeRows(out, base, mark *Buffer, placement Placement, transparency Transparency, percent, y0, y1 int) error {
	markW, markH := mark.Width(), mark.Height()
	for y := y0; y < y1; y++ {
		for x := 0; x < base.Width(); x++ {
			bp, err := base.At(x, y)
			if err != nil {
				return err
			}

			var wp *Pixel
			transparent := false
			if wx, wy, ok := placement.Resolve(x, y, markW, markH); ok {
				sample, err := mark.At(wx, wy)
				if err != nil {
					return err
				}
				wp = &sample
				transparent = transparency.IsTransparent(sample)
			}

			if err := out.Set(x, y, Blend(bp, wp, transparent, percent)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Composite runs a compositor sized to GOMAXPROCS.
func Composite(base, mark *Buffer, placement Placement, transparency Transparency, params BlendParams) (*Buffer, error) {
	return NewCompositor(0).Composite(base, mark, placement, transparency, params)
}
