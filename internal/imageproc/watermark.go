package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Options bundles everything a single compositing run needs besides the two images.
type Options struct {
	Placement    Placement
	Transparency Transparency
	Blend        BlendParams
	Workers      int
}

// ParseOutputFormat takes a file name or a bare extension and returns PNG or JPEG.
func ParseOutputFormat(name string) (imaging.Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.ToLower(strings.TrimPrefix(name, "."))
	}
	switch ext {
	case ".png":
		return imaging.PNG, nil
	case ".jpg", ".jpeg":
		return imaging.JPEG, nil
	default:
		return -1, fmt.Errorf("%w: %q", ErrUnsupportedOutput, name)
	}
}

// Encode writes the buffer as PNG or JPEG.
func Encode(w io.Writer, buf *Buffer, format imaging.Format) error {
	if buf == nil {
		return errors.New("nil buffer provided to Encode")
	}
	switch format {
	case imaging.PNG, imaging.JPEG:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, format)
	}
	return imaging.Encode(w, buf.Image(), format)
}

// Watermarker decodes base and watermark, validates their geometry, composites them and encodes the result.
func Watermarker(b, w io.Reader, opts Options, format imaging.Format) (io.Reader, int64, error) {
	if b == nil {
		return nil, 0, errors.New("nil-reader baseIMG provided")
	}
	if w == nil {
		return nil, 0, errors.New("nil-reader wmIMG provided")
	}

	// декодируем оба изображения с проверкой формата
	base, _, err := Decode(b)
	if err != nil {
		return nil, 0, fmt.Errorf("decode base image: %w", err)
	}

	mark, _, err := Decode(w)
	if err != nil {
		return nil, 0, fmt.Errorf("decode watermark image: %w", err)
	}

	// ватермарк должен влезать в основу
	if err := ValidateGeometry(base.Width(), base.Height(), mark.Width(), mark.Height(), opts.Placement); err != nil {
		return nil, 0, err
	}

	// накладываем
	result, err := NewCompositor(opts.Workers).Composite(base, mark, opts.Placement, opts.Transparency, opts.Blend)
	if err != nil {
		return nil, 0, fmt.Errorf("composite images: %w", err)
	}

	// кодируем результат в выходной формат
	var buf bytes.Buffer
	if err := Encode(&buf, result, format); err != nil {
		return nil, 0, fmt.Errorf("encode result image: %w", err)
	}

	return &buf, int64(buf.Len()), nil
}
