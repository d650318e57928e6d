package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/database"
	"github.com/triade/core/internal/ports"
)

const taskColumns = `id, user_id, title, description, energy_level, duration_minutes,
	status, date_scheduled, scheduled_time, role_tag, context_tag, delegated_to,
	follow_up_date, is_repeatable, repeat_count, repeat_days, completed_at,
	created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface. It holds the
// database wrapper rather than the bare pool so task deletion can run its
// two statements in one transaction.
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, energy_level, duration_minutes,
			status, date_scheduled, scheduled_time, role_tag, context_tag, delegated_to,
			follow_up_date, is_repeatable, repeat_count, repeat_days, completed_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	result, err := r.db.DB.ExecContext(ctx, query,
		task.UserID, task.Title, task.Description, task.EnergyLevel, task.DurationMinutes,
		task.Status, task.DateScheduled, task.ScheduledTime, task.RoleTag, task.ContextTag,
		task.DelegatedTo, task.FollowUpDate, task.IsRepeatable, task.RepeatCount,
		task.RepeatDays, task.CompletedAt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	task.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create task id: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`

	var task entities.Task
	err := r.db.DB.GetContext(ctx, &task, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, energy_level = ?, duration_minutes = ?,
			status = ?, date_scheduled = ?, scheduled_time = ?, role_tag = ?,
			context_tag = ?, delegated_to = ?, follow_up_date = ?, is_repeatable = ?,
			repeat_count = ?, repeat_days = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	task.UpdatedAt = time.Now().UTC()
	result, err := r.db.DB.ExecContext(ctx, query,
		task.Title, task.Description, task.EnergyLevel, task.DurationMinutes,
		task.Status, task.DateScheduled, task.ScheduledTime, task.RoleTag,
		task.ContextTag, task.DelegatedTo, task.FollowUpDate, task.IsRepeatable,
		task.RepeatCount, task.RepeatDays, task.CompletedAt, task.UpdatedAt,
		task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

// Delete removes a task and its completion history in one transaction.
func (r *TaskRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM task_completions WHERE task_id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete task completions: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entities.ErrTaskNotFound
		}

		return nil
	})
}

func (r *TaskRepositoryImpl) ListScheduledOn(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? AND date_scheduled = ?`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID, date); err != nil {
		return nil, fmt.Errorf("list tasks scheduled on %s: %w", date, err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListRepeatableBefore(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND is_repeatable = 1 AND status = ? AND date_scheduled < ?`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID, entities.TaskStatusActive, date); err != nil {
		return nil, fmt.Errorf("list repeatable tasks before %s: %w", date, err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListRepeatable(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? AND is_repeatable = 1`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list repeatable tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListPendingReview(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND date_scheduled = ? AND status = ?`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID, date, entities.TaskStatusPendingReview); err != nil {
		return nil, fmt.Errorf("list pending review tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListDelegated(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND delegated_to IS NOT NULL AND delegated_to != ''
		ORDER BY follow_up_date ASC`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("list delegated tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListInRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND date_scheduled >= ? AND date_scheduled <= ?
			AND (delegated_to IS NULL OR delegated_to = '')
		ORDER BY date_scheduled, energy_level`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list tasks in range: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListCompletedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND status = ? AND is_repeatable = 0
			AND completed_at IS NOT NULL AND completed_at >= ? AND completed_at <= ?`

	tasks := []*entities.Task{}
	err := r.db.DB.SelectContext(ctx, &tasks, query, userID, entities.TaskStatusDone, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list completed tasks between: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListCompleted(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND status = ? AND is_repeatable = 0 AND completed_at IS NOT NULL`

	tasks := []*entities.Task{}
	if err := r.db.DB.SelectContext(ctx, &tasks, query, userID, entities.TaskStatusDone); err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) DeleteCompletedBefore(ctx context.Context, cutoff entities.Date) (int64, error) {
	query := `DELETE FROM tasks WHERE status = ? AND date_scheduled < ?`

	result, err := r.db.DB.ExecContext(ctx, query, entities.TaskStatusDone, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}

	return result.RowsAffected()
}

func (r *TaskRepositoryImpl) MarkPendingReview(ctx context.Context, date entities.Date) (int64, error) {
	query := `
		UPDATE tasks
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE status = ? AND is_repeatable = 0 AND date_scheduled = ?`

	result, err := r.db.DB.ExecContext(ctx, query, entities.TaskStatusPendingReview, entities.TaskStatusActive, date)
	if err != nil {
		return 0, fmt.Errorf("mark pending review: %w", err)
	}

	return result.RowsAffected()
}
