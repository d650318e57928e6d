package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

const (
	maxTitleLen       = 40
	maxDescriptionLen = 100
	maxRoleTagLen     = 30
	maxDelegatedLen   = 50

	cleanupAfterDays = 90
)

// TaskService handles task CRUD and the planning side views.
type TaskService struct {
	taskRepo       ports.TaskRepository
	completionRepo ports.CompletionRepository
	configRepo     ports.ConfigRepository
	schedule       *ScheduleService
	clock          ports.Clock
	logger         *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	completionRepo ports.CompletionRepository,
	configRepo ports.ConfigRepository,
	schedule *ScheduleService,
	clock ports.Clock,
	logger *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		configRepo:     configRepo,
		schedule:       schedule,
		clock:          clock,
		logger:         logger,
	}
}

// CreateTask creates a new task after timebox validation
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if !req.EnergyLevel.IsValid() {
		return nil, &entities.ValidationError{Field: "energy_level", Message: "use HIGH_ENERGY, LOW_ENERGY or RENEWAL"}
	}
	if req.DurationMinutes <= 0 {
		return nil, &entities.ValidationError{Field: "duration_minutes", Message: "duration must be positive"}
	}
	if req.DateScheduled.IsZero() {
		return nil, &entities.ValidationError{Field: "date_scheduled", Message: "date_scheduled is required"}
	}
	if req.ScheduledTime != nil {
		if _, err := time.Parse("15:04", *req.ScheduledTime); err != nil {
			return nil, &entities.ValidationError{Field: "scheduled_time", Message: "use HH:MM"}
		}
	}
	if req.RepeatDays != nil && *req.RepeatDays <= 0 {
		return nil, &entities.ValidationError{Field: "repeat_days", Message: "repeat_days must be positive"}
	}

	if err := s.schedule.ValidateTimebox(ctx, userID, req.DateScheduled, req.DurationMinutes); err != nil {
		return nil, err
	}

	task := &entities.Task{
		UserID:          userID,
		Title:           truncate(req.Title, maxTitleLen),
		Description:     truncatePtr(req.Description, maxDescriptionLen),
		EnergyLevel:     req.EnergyLevel,
		DurationMinutes: req.DurationMinutes,
		Status:          entities.TaskStatusActive,
		DateScheduled:   req.DateScheduled,
		ScheduledTime:   req.ScheduledTime,
		RoleTag:         truncatePtr(req.RoleTag, maxRoleTagLen),
		ContextTag:      req.ContextTag,
		DelegatedTo:     truncatePtr(req.DelegatedTo, maxDelegatedLen),
		FollowUpDate:    req.FollowUpDate,
		IsRepeatable:    req.IsRepeatable,
		RepeatDays:      req.RepeatDays,
	}

	if task.IsDelegated() {
		task.Status = entities.TaskStatusDelegated
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "user_id", userID, "title", task.Title)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, userID, id)
}

// UpdateTask applies a partial update. Status, delegation and repetition
// changes carry side effects on completed_at and stored completion rows.
func (s *TaskService) UpdateTask(ctx context.Context, userID uuid.UUID, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	wasRepeatable := task.IsRepeatable
	oldStatus := task.Status
	oldDuration := task.DurationMinutes

	if req.Title != nil {
		task.Title = truncate(*req.Title, maxTitleLen)
	}
	if req.Description != nil {
		task.Description = truncatePtr(req.Description, maxDescriptionLen)
	}
	if req.EnergyLevel != nil {
		if !req.EnergyLevel.IsValid() {
			return nil, &entities.ValidationError{Field: "energy_level", Message: "use HIGH_ENERGY, LOW_ENERGY or RENEWAL"}
		}
		task.EnergyLevel = *req.EnergyLevel
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, &entities.ValidationError{Field: "duration_minutes", Message: "duration must be positive"}
		}
		task.DurationMinutes = *req.DurationMinutes
	}
	if req.DateScheduled != nil {
		task.DateScheduled = *req.DateScheduled
	}
	if req.ClearScheduledTime {
		task.ScheduledTime = nil
	} else if req.ScheduledTime != nil {
		if _, err := time.Parse("15:04", *req.ScheduledTime); err != nil {
			return nil, &entities.ValidationError{Field: "scheduled_time", Message: "use HH:MM"}
		}
		task.ScheduledTime = req.ScheduledTime
	}
	if req.RoleTag != nil {
		task.RoleTag = truncatePtr(req.RoleTag, maxRoleTagLen)
	}
	if req.ContextTag != nil {
		task.ContextTag = req.ContextTag
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, &entities.ValidationError{Field: "status", Message: "invalid status"}
		}
		task.Status = *req.Status

		// Completion timestamp follows the DONE transition in both directions.
		if task.Status == entities.TaskStatusDone && oldStatus != entities.TaskStatusDone {
			now := s.clock.Now()
			task.CompletedAt = &now
		} else if task.Status != entities.TaskStatusDone && oldStatus == entities.TaskStatusDone {
			task.CompletedAt = nil
		}
	}

	if req.ClearDelegatedTo {
		task.DelegatedTo = nil
		if task.Status == entities.TaskStatusDelegated {
			task.Status = entities.TaskStatusActive
		}
	} else if req.DelegatedTo != nil {
		task.DelegatedTo = truncatePtr(req.DelegatedTo, maxDelegatedLen)
		if task.IsDelegated() {
			if task.Status != entities.TaskStatusDone {
				task.Status = entities.TaskStatusDelegated
			}
		} else if task.Status == entities.TaskStatusDelegated {
			task.Status = entities.TaskStatusActive
		}
	}

	if req.ClearFollowUpDate {
		task.FollowUpDate = nil
	} else if req.FollowUpDate != nil {
		task.FollowUpDate = req.FollowUpDate
	}

	if req.IsRepeatable != nil {
		// Promoting a one-off to a template wipes its completion history so
		// the recurrence starts clean.
		if !wasRepeatable && *req.IsRepeatable {
			task.CompletedAt = nil
			if err := s.completionRepo.DeleteAllForTask(ctx, id); err != nil {
				return nil, fmt.Errorf("failed to reset completions: %w", err)
			}
			if task.Status == entities.TaskStatusDone {
				task.Status = entities.TaskStatusActive
			}
		}
		task.IsRepeatable = *req.IsRepeatable
	}

	if req.ClearRepeatDays {
		task.RepeatDays = nil
	} else if req.RepeatDays != nil {
		if *req.RepeatDays <= 0 {
			return nil, &entities.ValidationError{Field: "repeat_days", Message: "repeat_days must be positive"}
		}
		task.RepeatDays = req.RepeatDays
	}

	// A longer duration re-validates only the added minutes against the
	// day's remaining budget.
	if task.DurationMinutes > oldDuration {
		delta := task.DurationMinutes - oldDuration
		if err := s.schedule.ValidateTimebox(ctx, userID, task.DateScheduled, delta); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "user_id", userID)

	return task, nil
}

// DeleteTask removes a task and its completion history
func (s *TaskService) DeleteTask(ctx context.Context, userID uuid.UUID, id int64) error {
	if _, err := s.taskRepo.GetByID(ctx, userID, id); err != nil {
		return err
	}

	if err := s.completionRepo.DeleteAllForTask(ctx, id); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}

	if err := s.taskRepo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Infow("Task deleted", "task_id", id, "user_id", userID)
	return nil
}

// PendingReview lists tasks of a date left over from the daily rollover
func (s *TaskService) PendingReview(ctx context.Context, userID uuid.UUID, date entities.Date) (*ports.PendingReviewResponse, error) {
	tasks, err := s.taskRepo.ListPendingReview(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return &ports.PendingReviewResponse{
		Date:         date,
		PendingTasks: tasks,
		Count:        len(tasks),
	}, nil
}

// Delegated lists handed-off tasks ordered by follow-up date
func (s *TaskService) Delegated(ctx context.Context, userID uuid.UUID) (*ports.DelegatedTasksResponse, error) {
	tasks, err := s.taskRepo.ListDelegated(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ports.DelegatedTasksResponse{
		Total: len(tasks),
		Tasks: tasks,
	}, nil
}

// Weekly returns the non-delegated tasks of a date range plus the hour
// budget of every day inside it.
func (s *TaskService) Weekly(ctx context.Context, userID uuid.UUID, start, end entities.Date) (*ports.WeeklyTasksResponse, error) {
	if end.Before(start) {
		return nil, &entities.ValidationError{Field: "end_date", Message: "end_date must not precede start_date"}
	}

	tasks, err := s.taskRepo.ListInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	configured, err := s.configRepo.MapForRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	dailyConfigs := make(map[string]float64)
	for date := start; !date.After(end); date = date.AddDays(1) {
		hours, ok := configured[date.String()]
		if !ok {
			hours = entities.DefaultAvailableHours
		}
		dailyConfigs[date.String()] = hours
	}

	return &ports.WeeklyTasksResponse{
		Tasks:        tasks,
		DailyConfigs: dailyConfigs,
		StartDate:    start,
		EndDate:      end,
	}, nil
}

// Cleanup removes DONE tasks scheduled more than 90 days ago
func (s *TaskService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.clock.Today().AddDays(-cleanupAfterDays)

	deleted, err := s.taskRepo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.logger.Infow("Old tasks cleaned up", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func truncatePtr(s *string, max int) *string {
	if s == nil || *s == "" {
		return nil
	}
	truncated := truncate(*s, max)
	return &truncated
}
