package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrTaskNotFound),
		errors.Is(err, model.ErrResultNotReady):
		return 404
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrEmptyWMark),
		errors.Is(err, model.ErrIncorrectPlacement),
		errors.Is(err, model.ErrIncorrectPercent),
		errors.Is(err, model.ErrIncorrectColorKey),
		errors.Is(err, model.ErrConflictingMask),
		errors.Is(err, model.ErrIncorrectFormat),
		errors.Is(err, model.ErrUnsupportedWMFormat),
		errors.Is(err, model.ErrUnsupportedFormat),
		errors.Is(err, model.ErrWatermarkTooLarge),
		errors.Is(err, model.ErrNoAlphaChannel):
		return 400
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
