package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnendingLoop/WatermarkCompositor/internal/imageproc"
	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
)

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByUUID):
		req.Sort = "task_uid"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валидируем порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

func validateNormalizeTaskInfo(raw *model.TaskCreateData, clean *model.Task) error {
	// корректен ли исходник
	if raw.OrigImg == nil || raw.OrigImgSize <= 0 || !model.InImageTypeMap[raw.OrigContentType] {
		return model.ErrEmptySource
	}

	// корректен ли ватермарк
	if raw.WMImg == nil || raw.WMImgSize <= 0 || !model.InImageTypeMap[raw.WMContentType] {
		return model.ErrEmptyWMark
	}

	if raw.Percent == nil || *raw.Percent < 0 || *raw.Percent > 100 {
		return model.ErrIncorrectPercent
	}
	clean.Percent = *raw.Percent

	if raw.UseAlpha && raw.ColorKey != nil {
		return model.ErrConflictingMask
	}
	clean.UseAlpha = raw.UseAlpha
	clean.ColorKey = raw.ColorKey

	format, err := imageproc.ParseOutputFormat(raw.Format)
	if err != nil {
		return model.ErrIncorrectFormat
	}
	clean.Format = strings.TrimPrefix(model.GetImageFileExt[model.GetCType[format]], ".")

	return validateNormalizePlacement(raw, clean)
}

func validateNormalizePlacement(raw *model.TaskCreateData, clean *model.Task) error {
	mode, err := imageproc.ParsePlacementMode(raw.Placement)
	if err != nil {
		return model.ErrIncorrectPlacement
	}
	clean.Placement = model.Placement(mode)

	switch clean.Placement {
	case model.PlaceGrid: // оси игнорируются, сетка всегда от (0,0)
		clean.X, clean.Y = nil, nil
	case model.PlaceSingle:
		if raw.X == nil || raw.Y == nil || *raw.X < 0 || *raw.Y < 0 {
			return model.ErrIncorrectPlacement
		}
		clean.X, clean.Y = raw.X, raw.Y
	}
	return nil
}

// inspectUpload reads the image header and rewinds the file for the later upload.
func inspectUpload(f io.ReadSeeker) (imageproc.Format, error) {
	format, err := imageproc.InspectFormat(f)
	if err != nil {
		return format, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return format, fmt.Errorf("failed to rewind upload: %w", err)
	}
	return format, imageproc.CheckFormat(format)
}

// validateUploads checks pixel formats and geometry before anything is stored.
func validateUploads(raw *model.TaskCreateData, task *model.Task) error {
	base, err := inspectUpload(raw.OrigImg)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrUnsupportedFormat, err)
	}

	wm, err := inspectUpload(raw.WMImg)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrUnsupportedWMFormat, err)
	}

	switch {
	case task.UseAlpha && !wm.HasAlpha:
		return model.ErrNoAlphaChannel
	case task.ColorKey != nil && wm.HasAlpha:
		return fmt.Errorf("%w: watermark carries an alpha channel", model.ErrConflictingMask)
	}

	if err := imageproc.ValidateGeometry(base.Width, base.Height, wm.Width, wm.Height, TaskPlacement(task)); err != nil {
		switch {
		case errors.Is(err, imageproc.ErrWatermarkTooLarge):
			return fmt.Errorf("%w: %w", model.ErrWatermarkTooLarge, err)
		default:
			return fmt.Errorf("%w: %w", model.ErrIncorrectPlacement, err)
		}
	}
	return nil
}

// TaskPlacement converts stored task geometry into a compositor placement.
func TaskPlacement(task *model.Task) imageproc.Placement {
	if task.Placement == model.PlaceSingle && task.X != nil && task.Y != nil {
		return imageproc.Single(*task.X, *task.Y)
	}
	return imageproc.Placement{Mode: imageproc.PlacementMode(task.Placement)}
}

// TaskOptions builds compositing options from a stored task.
func TaskOptions(task *model.Task, workers int) imageproc.Options {
	tr := imageproc.Transparency{UseAlpha: task.UseAlpha}
	if task.ColorKey != nil {
		key := imageproc.RGB(task.ColorKey.R, task.ColorKey.G, task.ColorKey.B)
		tr.ColorKey = &key
	}
	return imageproc.Options{
		Placement:    TaskPlacement(task),
		Transparency: tr,
		Blend:        imageproc.BlendParams{Percent: task.Percent},
		Workers:      workers,
	}
}
