package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// Format describes the pixel layout reported by an image header.
type Format struct {
	Name       string
	Width      int
	Height     int
	Components int
	BitDepth   int
	HasAlpha   bool
}

// describeModel maps a decoder color model onto color component count, bits per pixel and alpha presence.
func describeModel(m color.Model) (components, depth int, alpha bool) {
	if _, ok := m.(color.Palette); ok {
		return 3, 8, false
	}
	switch m {
	case color.RGBAModel, color.YCbCrModel:
		return 3, 24, false
	case color.NRGBAModel:
		return 3, 32, true
	case color.RGBA64Model:
		return 3, 48, false
	case color.NRGBA64Model:
		return 3, 64, true
	case color.GrayModel:
		return 1, 8, false
	case color.Gray16Model:
		return 1, 16, false
	case color.CMYKModel:
		return 4, 32, false
	case color.AlphaModel:
		return 0, 8, true
	case color.Alpha16Model:
		return 0, 16, true
	}
	return 0, 0, false
}

// InspectFormat decodes only the image header.
func InspectFormat(r io.Reader) (Format, error) {
	if r == nil {
		return Format{}, errors.New("nil-reader provided to InspectFormat")
	}
	cfg, name, err := image.DecodeConfig(r)
	if err != nil {
		return Format{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	comps, depth, alpha := describeModel(cfg.ColorModel)
	return Format{
		Name:       name,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Components: comps,
		BitDepth:   depth,
		HasAlpha:   alpha,
	}, nil
}

// CheckFormat accepts only 3-component images of 24 or 32 bits.
func CheckFormat(f Format) error {
	if f.Components != 3 {
		return fmt.Errorf("%w: the number of color components isn't 3", ErrUnsupportedFormat)
	}
	if f.BitDepth != 24 && f.BitDepth != 32 {
		return fmt.Errorf("%w: the image isn't 24 or 32-bit", ErrUnsupportedFormat)
	}
	return nil
}

// Decode reads a whole image, checks its format and copies it into a buffer.
func Decode(r io.Reader) (*Buffer, Format, error) {
	if r == nil {
		return nil, Format{}, errors.New("nil-reader provided to Decode")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Format{}, fmt.Errorf("failed to read image: %w", err)
	}

	f, err := InspectFormat(bytes.NewReader(data))
	if err != nil {
		return nil, Format{}, err
	}
	if err := CheckFormat(f); err != nil {
		return nil, f, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, f, fmt.Errorf("failed to decode %s image: %w", f.Name, err)
	}

	buf, err := FromImage(img, f.HasAlpha)
	if err != nil {
		return nil, f, err
	}
	return buf, f, nil
}

// ValidateGeometry enforces that the watermark fits inside the base and that the placement keeps it there.
func ValidateGeometry(baseW, baseH, markW, markH int, placement Placement) error {
	if markW > baseW || markH > baseH {
		return fmt.Errorf("%w: %dx%d over %dx%d", ErrWatermarkTooLarge, markW, markH, baseW, baseH)
	}
	return placement.Validate(baseW, baseH, markW, markH)
}
