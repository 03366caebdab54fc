// Package intake collects watermark parameters for the command-line tool,
// either from flags or from an interactive question-and-answer dialog.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WatermarkCompositor/internal/imageproc"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

var ErrInvalidInput error = errors.New("invalid input")

// inputError carries the exact message shown to the user.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

type step int

const (
	stepImage step = iota
	stepWatermark
	stepUseAlpha
	stepSetColor
	stepColor
	stepPercent
	stepPosition
	stepCoords
	stepOutput
)

// answerer supplies the value for one step of the dialog.
type answerer interface {
	answer(s step, prompt string) (string, error)
}

// Job is everything needed to render one watermarked image.
type Job struct {
	Base       *imageproc.Buffer
	Mark       *imageproc.Buffer
	OutputPath string
	Format     imaging.Format
	Options    imageproc.Options
}

type Collector struct {
	fs      afero.Fs
	src     answerer
	workers int
}

func newCollector(fs afero.Fs, src answerer, workers int) *Collector {
	return &Collector{fs: fs, src: src, workers: workers}
}

// Collect walks the dialog in order: base, watermark, transparency, percentage, position, output.
// It stops at the first invalid answer.
func (c *Collector) Collect() (*Job, error) {
	// основа и ватермарк
	imgPath, err := c.src.answer(stepImage, "Input the image filename:")
	if err != nil {
		return nil, err
	}
	base, _, err := c.load(imgPath, "image")
	if err != nil {
		return nil, err
	}

	wmPath, err := c.src.answer(stepWatermark, "Input the watermark image filename:")
	if err != nil {
		return nil, err
	}
	mark, wmFormat, err := c.load(wmPath, "watermark")
	if err != nil {
		return nil, err
	}
	if mark.Width() > base.Width() || mark.Height() > base.Height() {
		return nil, invalid("The watermark's dimensions are larger.")
	}

	// какой вопрос о прозрачности задать, зависит от наличия альфа-канала
	tr, err := c.transparency(wmFormat.HasAlpha)
	if err != nil {
		return nil, err
	}

	percent, err := c.percent()
	if err != nil {
		return nil, err
	}

	// диапазон координат в подсказке считается от размеров обоих изображений
	placement, err := c.placement(base, mark)
	if err != nil {
		return nil, err
	}

	outPath, format, err := c.output()
	if err != nil {
		return nil, err
	}

	// флаги, до которых диалог не дошел, считаем ошибкой
	if chk, ok := c.src.(interface{ unused() error }); ok {
		if err := chk.unused(); err != nil {
			return nil, err
		}
	}

	return &Job{
		Base:       base,
		Mark:       mark,
		OutputPath: outPath,
		Format:     format,
		Options: imageproc.Options{
			Placement:    placement,
			Transparency: tr,
			Blend:        imageproc.BlendParams{Percent: percent},
			Workers:      c.workers,
		},
	}, nil
}

func (c *Collector) load(path, label string) (*imageproc.Buffer, imageproc.Format, error) {
	exists, err := afero.Exists(c.fs, path)
	if err != nil {
		return nil, imageproc.Format{}, fmt.Errorf("failed to check %s file %q: %w", label, path, err)
	}
	if path == "" || !exists {
		return nil, imageproc.Format{}, invalid("The file %s doesn't exist.", path)
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, imageproc.Format{}, fmt.Errorf("failed to read %s file %q: %w", label, path, err)
	}

	f, err := imageproc.InspectFormat(bytes.NewReader(data))
	if err != nil {
		return nil, f, invalid("The file %s isn't a supported image.", path)
	}
	if f.Components != 3 {
		return nil, f, invalid("The number of %s color components isn't 3.", label)
	}
	if f.BitDepth != 24 && f.BitDepth != 32 {
		return nil, f, invalid("The %s isn't 24 or 32-bit.", label)
	}

	buf, f, err := imageproc.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, f, fmt.Errorf("failed to decode %s %q: %w", label, path, err)
	}
	return buf, f, nil
}

func (c *Collector) transparency(hasAlpha bool) (imageproc.Transparency, error) {
	if hasAlpha {
		ans, err := c.src.answer(stepUseAlpha, "Do you want to use the watermark's Alpha channel?")
		if err != nil {
			return imageproc.Transparency{}, err
		}
		if ans == "yes" {
			return imageproc.AlphaChannel(), nil
		}
		return imageproc.Transparency{}, nil
	}

	ans, err := c.src.answer(stepSetColor, "Do you want to set a transparency color?")
	if err != nil {
		return imageproc.Transparency{}, err
	}
	if ans != "yes" {
		return imageproc.Transparency{}, nil
	}

	col, err := c.src.answer(stepColor, "Input a transparency color ([Red] [Green] [Blue]):")
	if err != nil {
		return imageproc.Transparency{}, err
	}
	key, err := imageproc.ParseColorKey(col)
	if err != nil {
		return imageproc.Transparency{}, invalid("The transparency color input is invalid.")
	}
	return imageproc.ColorKey(key), nil
}

func (c *Collector) percent() (int, error) {
	ans, err := c.src.answer(stepPercent, "Input the watermark transparency percentage (Integer 0-100):")
	if err != nil {
		return 0, err
	}
	p, err := strconv.Atoi(strings.TrimSpace(ans))
	if err != nil {
		return 0, invalid("The transparency percentage isn't an integer number.")
	}
	if err := (imageproc.BlendParams{Percent: p}).Validate(); err != nil {
		return 0, invalid("The transparency percentage is out of range.")
	}
	return p, nil
}

func (c *Collector) placement(base, mark *imageproc.Buffer) (imageproc.Placement, error) {
	ans, err := c.src.answer(stepPosition, "Choose the position method (single, grid):")
	if err != nil {
		return imageproc.Placement{}, err
	}

	switch imageproc.PlacementMode(ans) {
	case imageproc.PlaceGrid:
		return imageproc.Grid(), nil
	case imageproc.PlaceSingle:
	default:
		return imageproc.Placement{}, invalid("The position method input is invalid.")
	}

	maxX, maxY := base.Width()-mark.Width(), base.Height()-mark.Height()
	pos, err := c.src.answer(stepCoords, fmt.Sprintf("Input the watermark position ([x 0-%d] [y 0-%d]):", maxX, maxY))
	if err != nil {
		return imageproc.Placement{}, err
	}

	parts := strings.Split(strings.TrimSpace(pos), " ")
	if len(parts) != 2 {
		return imageproc.Placement{}, invalid("The position input is invalid.")
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		return imageproc.Placement{}, invalid("The position input is invalid.")
	}

	p := imageproc.Single(x, y)
	if err := p.Validate(base.Width(), base.Height(), mark.Width(), mark.Height()); err != nil {
		return imageproc.Placement{}, invalid("The position input is out of range.")
	}
	return p, nil
}

func (c *Collector) output() (string, imaging.Format, error) {
	ans, err := c.src.answer(stepOutput, "Input the output image filename (jpg or png extension):")
	if err != nil {
		return "", -1, err
	}
	format, err := imageproc.ParseOutputFormat(ans)
	if err != nil || filepath.Ext(ans) == "" {
		return "", -1, invalid(`The output file extension isn't "jpg" or "png".`)
	}
	return ans, format, nil
}

// Render composites the job and writes the encoded result to its output path.
func Render(fs afero.Fs, job *Job) error {
	res, err := imageproc.NewCompositor(job.Options.Workers).
		Composite(job.Base, job.Mark, job.Options.Placement, job.Options.Transparency, job.Options.Blend)
	if err != nil {
		return fmt.Errorf("failed to composite: %w", err)
	}

	// пишем в файл
	f, err := fs.Create(job.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", job.OutputPath, err)
	}
	if err := imageproc.Encode(f, res, job.Format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %q: %w", job.OutputPath, err)
	}
	return f.Close()
}
