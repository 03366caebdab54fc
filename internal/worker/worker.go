// Package worker contains methods for worker to init at start, and to process watermark tasks
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/imageproc"
	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
	"github.com/UnendingLoop/WatermarkCompositor/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkCompositor/internal/service"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// NoopPublisher - ЗАГЛУШКА, функциональность настоящего паблишера в очередь не нужна в рамках работы воркера
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error {
	return nil
}

type TaskWorkerService interface {
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	SaveResult(ctx context.Context, res *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
}

// Committer acknowledges a processed queue message.
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

// errTaskFailed marks a task whose failure was already recorded in DB.
var errTaskFailed = errors.New("task failed")

type Worker struct {
	storage      service.ObjectStorage
	service      TaskWorkerService
	queue        <-chan kafkago.Message
	consumer     Committer
	resultPrefix string
	workers      int
}

func NewWorkerInstance(strg service.ObjectStorage, svc TaskWorkerService, q <-chan kafkago.Message, cons Committer, resPr string, workers int) *Worker {
	return &Worker{storage: strg, service: svc, queue: q, consumer: cons, resultPrefix: resPr, workers: workers}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				log.Println("Queue channel closed, stopping worker...")
				return
			}
			id := string(msg.Key)
			taskCtx := mwlogger.WithLogger(ctx, zlog.Logger.With().Str("task_id", id).Logger())
			if err := w.initProcessor(taskCtx, id); err != nil {
				log.Printf("Task %s failed: %v", id, err)
				// задача, которую нельзя или бессмысленно повторять, коммитится
				if !errors.Is(err, model.ErrTaskNotFound) && !errors.Is(err, errTaskFailed) {
					continue
				}
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit queue-message: %v", err)
			}
		}
	}
}

func (w *Worker) initProcessor(ctx context.Context, id string) error {
	// считать из базы задачу
	task, err := w.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("worker failed to fetch task %q from DB: %w", id, err)
	}
	// проверить статус
	switch task.Status {
	case model.StatusDone, model.StatusFailed:
		return nil
	case model.StatusInProgress:
		// брошенную упавшим воркером задачу забираем себе, живую не трогаем
		if !task.IsOrphan(time.Now().UTC()) {
			return fmt.Errorf("task %q is already in progress", id)
		}
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Msg("Taking over abandoned in-progress task")
	}

	// на всякий случай проверить поле с результатом
	if w.resultPrefix != "" && strings.HasPrefix(task.ResultKey, w.resultPrefix) {
		if err := w.service.UpdateStatus(ctx, id, model.StatusDone); err != nil {
			return fmt.Errorf("failed to update status of already-done task in DB: %w", err)
		}
		return nil
	}

	// обновить статус
	if err := w.service.UpdateStatus(ctx, id, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to update status of task %q to `in_progress` in DB: %w", id, err)
	}

	// выполняем саму операцию
	if pErr := w.processTask(ctx, task); pErr != nil {
		task.Status = model.StatusFailed
		task.ErrMsg = append(task.ErrMsg, pErr.Error())
		if uErr := w.service.SaveResult(ctx, task); uErr != nil {
			return fmt.Errorf("failed to set status of task %q to `failed` in DB: %w \nAFTER\n error while processing task: %w", id, uErr, pErr)
		}
		return fmt.Errorf("%w: %q: %w", errTaskFailed, id, pErr)
	}

	return nil
}

func (w *Worker) processTask(ctx context.Context, task *model.Task) error {
	format, err := imageproc.ParseOutputFormat(task.Format)
	if err != nil {
		return fmt.Errorf("worker got task with bad output format: %w", err)
	}

	// достать из storage исходники
	base, _, err := w.storage.Get(ctx, task.SourceKey)
	if err != nil {
		return fmt.Errorf("worker failed to fetch base-image from storage: %w", err)
	}
	defer closeFileFlow(base)

	wm, _, err := w.storage.Get(ctx, task.WatermarkKey)
	if err != nil {
		return fmt.Errorf("worker failed to fetch wm-image from storage: %w", err)
	}
	defer closeFileFlow(wm)

	// выполнить наложение
	var result io.Reader
	var size int64
	result, size, err = imageproc.Watermarker(base, wm, service.TaskOptions(task, w.workers), format)
	if err != nil {
		return fmt.Errorf("worker failed to apply wm on image: %w", err)
	}

	// положить результат в сторедж
	resCType := model.GetCType[format]
	resKey := w.resultPrefix + task.UID.String() + model.GetImageFileExt[resCType]
	if err := w.storage.Put(ctx, resKey, size, resCType, result); err != nil {
		return fmt.Errorf("worker failed to put result image to storage: %w", err)
	}

	task.Status = model.StatusDone
	task.ResultKey = resKey

	// обновить запись в БД
	if err := w.service.SaveResult(ctx, task); err != nil {
		return fmt.Errorf("worker failed to save result to DB: %w", err)
	}
	return nil
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}

	if err := res.Close(); err != nil {
		log.Println("Worker failed to close fileflow:", err)
	}
}
