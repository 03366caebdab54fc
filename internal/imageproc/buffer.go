// Package imageproc provides the watermark compositing core: pixel buffers, placement resolving,
// color-key masking, blending, and the loader/writer around them.
package imageproc

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	ErrOutOfBounds       error = errors.New("coordinate is out of buffer bounds")
	ErrInvalidPlacement  error = errors.New("watermark position is out of range")
	ErrInvalidPercent    error = errors.New("transparency percentage is out of range")
	ErrInvalidSize       error = errors.New("buffer dimensions must be positive")
	ErrUnsupportedFormat error = errors.New("unsupported image format")
	ErrWatermarkTooLarge error = errors.New("the watermark's dimensions are larger")
	ErrUnsupportedOutput error = errors.New(`the output file extension isn't "jpg" or "png"`)
	ErrInvalidColorKey   error = errors.New("the transparency color input is invalid")
)

// Pixel is one RGB sample; A is meaningful only when HasAlpha is set.
type Pixel struct {
	R, G, B  uint8
	A        uint8
	HasAlpha bool
}

// RGB returns an opaque pixel without alpha channel.
func RGB(r, g, b uint8) Pixel {
	return Pixel{R: r, G: g, B: b, A: 0xff}
}

// Buffer is a rectangular pixel grid anchored at (0,0).
type Buffer struct {
	img   *image.NRGBA
	alpha bool
}

// NewBuffer allocates an opaque RGB buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return &Buffer{img: img}, nil
}

// FromImage copies img into a buffer. hasAlpha marks whether the source carries a real alpha channel;
// without it every pixel is reported opaque.
func FromImage(img image.Image, hasAlpha bool) (*Buffer, error) {
	if img == nil {
		return nil, errors.New("nil image provided")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, b.Dx(), b.Dy())
	}
	return &Buffer{img: imaging.Clone(img), alpha: hasAlpha}, nil
}

func (b *Buffer) Width() int { return b.img.Rect.Dx() }

func (b *Buffer) Height() int { return b.img.Rect.Dy() }

func (b *Buffer) HasAlpha() bool { return b.alpha }

// Bounds reports the buffer size as a rectangle at the origin.
func (b *Buffer) Bounds() image.Rectangle { return b.img.Rect }

func (b *Buffer) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.img.Rect.Dx() && y < b.img.Rect.Dy()
}

// At reads the pixel at (x,y).
func (b *Buffer) At(x, y int) (Pixel, error) {
	if !b.contains(x, y) {
		return Pixel{}, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, b.Width(), b.Height())
	}
	i := b.img.PixOffset(x, y)
	px := b.img.Pix[i : i+4 : i+4]
	if !b.alpha {
		return RGB(px[0], px[1], px[2]), nil
	}
	return Pixel{R: px[0], G: px[1], B: px[2], A: px[3], HasAlpha: true}, nil
}

// Set overwrites the pixel at (x,y). Buffers without alpha channel store the pixel opaque.
func (b *Buffer) Set(x, y int, p Pixel) error {
	if !b.contains(x, y) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, b.Width(), b.Height())
	}
	a := uint8(0xff)
	if b.alpha && p.HasAlpha {
		a = p.A
	}
	i := b.img.PixOffset(x, y)
	px := b.img.Pix[i : i+4 : i+4]
	px[0], px[1], px[2], px[3] = p.R, p.G, p.B, a
	return nil
}

// Image exposes the underlying raster for encoding. The caller must not modify it.
func (b *Buffer) Image() *image.NRGBA { return b.img }
