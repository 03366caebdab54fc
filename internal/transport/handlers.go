// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WatermarkCompositor/internal/imageproc"
	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type TaskHandler struct {
	service TaskService
}

type TaskService interface {
	Create(ctx context.Context, newTask *model.TaskCreateData) (*model.Task, error)
	Delete(ctx context.Context, id string) error                               // удалить как в базе, так и в minio
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)  // прям скачать результат
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) // получить список
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		service: svc,
	}
}

func (h TaskHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h TaskHandler) Create(ctx *ginext.Context) {
	var raw model.TaskCreateData
	if err := parseTaskParams(ctx, &raw); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	// парсинг исходника
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(imageFile)
	raw.OrigImg = imageFile
	raw.OrigContentType = imageHeader.Header.Get("Content-Type")
	raw.OrigImgSize = imageHeader.Size

	// парсинг ватермарка
	wmFile, wmHeader, err := ctx.Request.FormFile("watermark")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "watermark is required"})
		return
	}
	defer closeFileFlow(wmFile)
	raw.WMImg = wmFile
	raw.WMContentType = wmHeader.Header.Get("Content-Type")
	raw.WMImgSize = wmHeader.Size

	// передаем в сервис
	res, err := h.service.Create(ctx.Request.Context(), &raw)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

// parseTaskParams reads the non-file form fields; empty fields stay unset for the service to judge.
func parseTaskParams(ctx *ginext.Context, raw *model.TaskCreateData) error {
	raw.Placement = ctx.PostForm("position")
	raw.Format = ctx.PostForm("format")

	var err error
	if raw.Percent, err = optionalInt(ctx.PostForm("percent")); err != nil {
		return model.ErrIncorrectPercent
	}
	if raw.X, err = optionalInt(ctx.PostForm("x_axis")); err != nil {
		return model.ErrIncorrectPlacement
	}
	if raw.Y, err = optionalInt(ctx.PostForm("y_axis")); err != nil {
		return model.ErrIncorrectPlacement
	}

	if alpha := strings.TrimSpace(ctx.PostForm("alpha")); alpha != "" {
		if raw.UseAlpha, err = strconv.ParseBool(alpha); err != nil {
			return model.ErrIncorrectQuery
		}
	}

	if color := strings.TrimSpace(ctx.PostForm("color")); color != "" {
		key, err := imageproc.ParseColorKey(color)
		if err != nil {
			return model.ErrIncorrectColorKey
		}
		raw.ColorKey = &model.RGB{R: key.R, G: key.G, B: key.B}
	}
	return nil
}

func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h TaskHandler) GetAllTasks(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectQuery.Error()})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h TaskHandler) LoadResult(ctx *ginext.Context) {
	id := ctx.Param("id")

	res, cType, err := h.service.LoadResult(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for task id %q: %v", n, id, err)
	}
}

func (h TaskHandler) Delete(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
