package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/ports"
)

const completionColumns = `id, user_id, task_id, date, status, completed_at, created_at`

// CompletionRepositoryImpl implements the CompletionRepository interface
type CompletionRepositoryImpl struct {
	db *sqlx.DB
}

// NewCompletionRepository creates a new completion repository
func NewCompletionRepository(db *sqlx.DB) ports.CompletionRepository {
	return &CompletionRepositoryImpl{db: db}
}

func (r *CompletionRepositoryImpl) Create(ctx context.Context, completion *entities.TaskCompletion) error {
	query := `
		INSERT INTO task_completions (user_id, task_id, date, status, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if completion.CreatedAt.IsZero() {
		completion.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		completion.UserID, completion.TaskID, completion.Date,
		completion.Status, completion.CompletedAt, completion.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create completion: %w", err)
	}

	completion.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create completion id: %w", err)
	}

	return nil
}

func (r *CompletionRepositoryImpl) Get(ctx context.Context, userID uuid.UUID, taskID int64, date entities.Date) (*entities.TaskCompletion, error) {
	query := `SELECT ` + completionColumns + ` FROM task_completions WHERE user_id = ? AND task_id = ? AND date = ?`

	var completion entities.TaskCompletion
	err := r.db.GetContext(ctx, &completion, query, userID, taskID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("get completion: %w", err)
	}

	return &completion, nil
}

func (r *CompletionRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, taskID int64, date entities.Date) error {
	query := `DELETE FROM task_completions WHERE user_id = ? AND task_id = ? AND date = ?`

	result, err := r.db.ExecContext(ctx, query, userID, taskID, date)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrCompletionNotFound
	}

	return nil
}

func (r *CompletionRepositoryImpl) DeleteAllForTask(ctx context.Context, taskID int64) error {
	query := `DELETE FROM task_completions WHERE task_id = ?`

	if _, err := r.db.ExecContext(ctx, query, taskID); err != nil {
		return fmt.Errorf("delete completions for task: %w", err)
	}

	return nil
}

func (r *CompletionRepositoryImpl) MapForDate(ctx context.Context, userID uuid.UUID, date entities.Date) (map[int64]entities.TaskStatus, error) {
	query := `SELECT task_id, status FROM task_completions WHERE user_id = ? AND date = ?`

	rows := []struct {
		TaskID int64               `db:"task_id"`
		Status entities.TaskStatus `db:"status"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, userID, date); err != nil {
		return nil, fmt.Errorf("map completions for date: %w", err)
	}

	statuses := make(map[int64]entities.TaskStatus, len(rows))
	for _, row := range rows {
		statuses[row.TaskID] = row.Status
	}

	return statuses, nil
}

func (r *CompletionRepositoryImpl) ListDoneForTask(ctx context.Context, taskID int64) ([]*entities.TaskCompletion, error) {
	query := `SELECT ` + completionColumns + ` FROM task_completions WHERE task_id = ? AND status = ?`

	completions := []*entities.TaskCompletion{}
	if err := r.db.SelectContext(ctx, &completions, query, taskID, entities.TaskStatusDone); err != nil {
		return nil, fmt.Errorf("list done completions for task: %w", err)
	}

	return completions, nil
}

func (r *CompletionRepositoryImpl) ListDoneInRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.TaskCompletion, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM task_completions
		WHERE user_id = ? AND status = ? AND date >= ? AND date <= ?`

	completions := []*entities.TaskCompletion{}
	err := r.db.SelectContext(ctx, &completions, query, userID, entities.TaskStatusDone, start, end)
	if err != nil {
		return nil, fmt.Errorf("list done completions in range: %w", err)
	}

	return completions, nil
}
