package main

import (
	"context"

	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
)

type TaskWorkerService interface {
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	SaveResult(ctx context.Context, res *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
}
