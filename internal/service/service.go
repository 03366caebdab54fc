// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
	"github.com/UnendingLoop/WatermarkCompositor/internal/mwlogger"
	"github.com/UnendingLoop/WatermarkCompositor/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type TaskService struct {
	repo         repository.TaskRepo
	publisher    TaskPublisher
	storage      ObjectStorage
	srcKeyPrefix string
	wmKeyPrefix  string
}

// KeyPrefixes - префиксы ключей загружаемых объектов в хранилище
type KeyPrefixes struct {
	Source    string
	Watermark string
}

func NewTaskService(taskRep repository.TaskRepo, pub TaskPublisher, strg ObjectStorage, prefixes KeyPrefixes) *TaskService {
	return &TaskService{
		repo:         taskRep,
		publisher:    pub,
		storage:      strg,
		srcKeyPrefix: prefixes.Source,
		wmKeyPrefix:  prefixes.Watermark,
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

func (c TaskService) Create(ctx context.Context, taskData *model.TaskCreateData) (*model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	newTask := &model.Task{}

	// Валидируем параметры
	if err := validateNormalizeTaskInfo(taskData, newTask); err != nil {
		return nil, err
	}

	// проверяем форматы и размеры до того, как что-то сохранить
	if err := validateUploads(taskData, newTask); err != nil {
		return nil, err
	}

	newTask.UID = uuid.New()

	// кладем в хранилище сорсник
	newTask.SourceKey = c.srcKeyPrefix + newTask.UID.String() + model.GetImageFileExt[taskData.OrigContentType]
	if err := c.storage.Put(ctx, newTask.SourceKey, taskData.OrigImgSize, taskData.OrigContentType, taskData.OrigImg); err != nil {
		logger.Error().Err(err).Msg("Failed to save src-image in Storage")
		return nil, model.ErrCommon500
	}

	// кладем в хранилище ватермарк
	newTask.WatermarkKey = c.wmKeyPrefix + newTask.UID.String() + model.GetImageFileExt[taskData.WMContentType]
	if err := c.storage.Put(ctx, newTask.WatermarkKey, taskData.WMImgSize, taskData.WMContentType, taskData.WMImg); err != nil {
		logger.Error().Err(err).Msg("Failed to save watermark in Storage")
		c.dropObjects(ctx, newTask.SourceKey)
		return nil, model.ErrCommon500
	}

	// ставим статус и таймстамп
	newTask.Status = model.StatusCreated
	now := time.Now().UTC()
	newTask.CreatedAt = &now

	// шлем в базу
	if err := c.repo.Create(ctx, newTask); err != nil {
		logger.Error().Err(err).Msg("Failed to create task in DB")
		c.dropObjects(ctx, newTask.SourceKey, newTask.WatermarkKey)
		return nil, model.ErrCommon500
	}

	// кладем в очередь задач(в кафку)
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(newTask.UID.String()), nil); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish task %q to task-queue", newTask.UID))
		// клиент получит 500, поэтому задачу целиком откатываем
		if dErr := c.repo.Delete(ctx, newTask.UID.String()); dErr != nil {
			logger.Error().Err(dErr).Msg(fmt.Sprintf("Failed to roll back task %q in DB", newTask.UID))
		}
		c.dropObjects(ctx, newTask.SourceKey, newTask.WatermarkKey)
		return nil, model.ErrCommon500
	}
	return newTask, nil
}

// dropObjects - удаление уже загруженных файлов при откате создания задачи
func (c TaskService) dropObjects(ctx context.Context, keys ...string) {
	logger := mwlogger.LoggerFromContext(ctx)
	for _, key := range keys {
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to delete object %q from Storage", key))
		}
	}
}

func (c TaskService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch tasks list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	res, err := c.repo.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return nil, model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch task %q from DB", id))
			return nil, model.ErrCommon500
		}
	}

	return res, nil
}

func (c TaskService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	res, err := c.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if res.Status != model.StatusDone {
		return nil, "", model.ErrResultNotReady
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, res.ResultKey)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch result-image %q from Storage", id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c TaskService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)

	// читаем из базы
	res, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return model.ErrTaskNotFound
		}
		logger.Error().Err(err).Msg("Failed to delete task from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища сорсник, ватермарк и результат(если он есть)
	for _, key := range []string{res.SourceKey, res.WatermarkKey, res.ResultKey} {
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to delete object %q from Storage", key))
			return model.ErrCommon500
		}
	}

	return nil
}

func (c TaskService) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}

	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.UpdateStatus(ctx, id, newStat); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to update task status in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

func (c TaskService) SaveResult(ctx context.Context, input *model.Task) error {
	logger := mwlogger.LoggerFromContext(ctx)
	t := time.Now().UTC()
	input.UpdatedAt = &t
	if err := c.repo.SaveResult(ctx, input); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to save task result in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

func (c TaskService) ReviveOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphans from DB")
		return
	}

	for _, v := range orphans {
		if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(v), nil); err != nil {
			logger.Error().Err(err).Msg("Failed to publish orphan to queue")
		}
	}
}
