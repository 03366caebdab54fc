package taskpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/UnendingLoop/WatermarkCompositor/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

const taskColumns = `task_uid, source_key, wm_key, result_key, placement, x_axis, y_axis, percent, use_alpha, color_key, format, status, err_msg, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var task model.Task
	err := row.Scan(&task.UID,
		&task.SourceKey,
		&task.WatermarkKey,
		&task.ResultKey,
		&task.Placement,
		&task.X,
		&task.Y,
		&task.Percent,
		&task.UseAlpha,
		&task.ColorKey,
		&task.Format,
		&task.Status,
		&task.ErrMsg,
		&task.CreatedAt,
		&task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (p PostgresRepo) Create(ctx context.Context, n *model.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	return p.DB.QueryRowContext(ctx, query, n.UID, n.SourceKey, n.WatermarkKey, n.ResultKey, n.Placement, n.X, n.Y,
		n.Percent, n.UseAlpha, n.ColorKey, n.Format, n.Status, n.ErrMsg, n.CreatedAt, n.CreatedAt).Err()
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE task_uid = $1`

	task, err := scanTask(p.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrTaskNotFound
		default:
			return nil, err // 500
		}
	}
	return task, nil
}

func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	query := fmt.Sprintf(`SELECT %s
	FROM tasks
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, taskColumns, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	tasks := make([]model.Task, 0, req.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tasks, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks
	WHERE task_uid = $1`

	res, err := p.DB.Master.ExecContext(ctx, query, id)
	if err != nil {
		return err // 500
	}
	return expectOneRow(res)
}

func (p PostgresRepo) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	query := `UPDATE tasks SET status = $1, updated_at = now() WHERE task_uid = $2`

	res, err := p.DB.Master.ExecContext(ctx, query, newStat, id)
	if err != nil {
		return err // 500
	}
	return expectOneRow(res)
}

func (p PostgresRepo) SaveResult(ctx context.Context, input *model.Task) error {
	query := `UPDATE tasks SET status = $1, updated_at = $2, result_key = $3, err_msg = $4 WHERE task_uid = $5`

	res, err := p.DB.Master.ExecContext(ctx, query, input.Status, input.UpdatedAt, input.ResultKey, input.ErrMsg, input.UID)
	if err != nil {
		return err // 500
	}
	return expectOneRow(res)
}

func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT task_uid
	FROM tasks
	WHERE status IN ($1, $2)
	AND updated_at < $3
	LIMIT $4`

	threshold := time.Now().UTC().Add(-model.OrphanAge)
	rows, err := p.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusInProgress, threshold, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		uid := ""
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		orphans = append(orphans, uid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrTaskNotFound // 404
	}
	return nil
}
