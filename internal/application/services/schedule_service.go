package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// ScheduleService materializes the daily task list, toggles per-date
// completion and guards the daily hour budget.
type ScheduleService struct {
	taskRepo       ports.TaskRepository
	completionRepo ports.CompletionRepository
	configRepo     ports.ConfigRepository
	clock          ports.Clock
	logger         *logger.Logger
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	taskRepo ports.TaskRepository,
	completionRepo ports.CompletionRepository,
	configRepo ports.ConfigRepository,
	clock ports.Clock,
	logger *logger.Logger,
) *ScheduleService {
	return &ScheduleService{
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		configRepo:     configRepo,
		clock:          clock,
		logger:         logger,
	}
}

// DailyTasks materializes the task list for one calendar date: tasks
// anchored on the date, plus one virtual occurrence of each repeatable
// template still inside its repeat window, with per-date completions
// applied on top. The result is deterministic and nothing is persisted.
func (s *ScheduleService) DailyTasks(ctx context.Context, userID uuid.UUID, date entities.Date) (*ports.DailyTasksResponse, error) {
	anchors, err := s.taskRepo.ListScheduledOn(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled tasks: %w", err)
	}

	candidates, err := s.taskRepo.ListRepeatableBefore(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load repeatable tasks: %w", err)
	}

	statuses, err := s.completionRepo.MapForDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	instances := make([]entities.TaskInstance, 0, len(anchors)+len(candidates))

	for _, task := range anchors {
		if status, ok := statuses[task.ID]; ok && task.IsRepeatable {
			instances = append(instances, task.InstanceWithStatus(status))
		} else {
			instances = append(instances, task.Instance())
		}
	}

	for _, template := range candidates {
		daysElapsed := date.DaysSince(template.DateScheduled)

		// A bounded repetition covers daysElapsed 0..repeat_days-1 and then
		// stops producing occurrences.
		if template.RepeatDays != nil && *template.RepeatDays > 0 && daysElapsed >= *template.RepeatDays {
			continue
		}

		status := entities.TaskStatusActive
		if override, ok := statuses[template.ID]; ok {
			status = override
		}

		instances = append(instances, template.VirtualInstance(date, status, daysElapsed+1))
	}

	sortInstances(instances)

	var totalMinutes, activeCount int
	for i := range instances {
		if !instances[i].IsDelegated() {
			totalMinutes += instances[i].DurationMinutes
		}
		if instances[i].EffectiveStatus() == entities.TaskStatusActive {
			activeCount++
		}
	}

	usedHours := round2(float64(totalMinutes) / 60)
	availableHours, err := s.availableHours(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return &ports.DailyTasksResponse{
		Date:  date,
		Tasks: instances,
		Summary: entities.DaySummary{
			TotalTasks:     activeCount,
			UsedHours:      usedHours,
			AvailableHours: availableHours,
			RemainingHours: round2(availableHours - usedHours),
		},
	}, nil
}

// ToggleDate flips the done/active state of a task on one calendar date.
// An existing completion is deleted (back to ACTIVE), otherwise one is
// created (DONE). Only a non-repeatable task toggled on its own scheduled
// date writes through to the stored row; repeatable templates are never
// mutated beyond their updated_at.
func (s *ScheduleService) ToggleDate(ctx context.Context, userID uuid.UUID, taskID int64, date entities.Date) (*ports.ToggleResponse, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	isAnchorDate := !task.IsRepeatable && task.DateScheduled.Equal(date)
	newStatus := entities.TaskStatusActive

	if _, err := s.completionRepo.Get(ctx, userID, taskID, date); err == nil {
		if err := s.completionRepo.Delete(ctx, userID, taskID, date); err != nil {
			return nil, fmt.Errorf("failed to delete completion: %w", err)
		}
		if isAnchorDate {
			task.CompletedAt = nil
			task.Status = entities.TaskStatusActive
		}
	} else if err != entities.ErrCompletionNotFound {
		return nil, fmt.Errorf("failed to load completion: %w", err)
	} else {
		now := s.clock.Now()
		completion := &entities.TaskCompletion{
			UserID:      userID,
			TaskID:      taskID,
			Date:        date,
			Status:      entities.TaskStatusDone,
			CompletedAt: &now,
		}
		if err := s.completionRepo.Create(ctx, completion); err != nil {
			return nil, fmt.Errorf("failed to create completion: %w", err)
		}
		newStatus = entities.TaskStatusDone
		if isAnchorDate {
			task.CompletedAt = &now
			task.Status = entities.TaskStatusDone
		}
	}

	// Bumps updated_at in every branch; for a repeatable template the other
	// columns are written back unchanged.
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return &ports.ToggleResponse{
		TaskID: taskID,
		Date:   date,
		Status: newStatus,
	}, nil
}

// ValidateTimebox rejects additions that would push a day past its
// available hours. Only stored ACTIVE tasks anchored on the date count as
// used time; virtual occurrences do not.
func (s *ScheduleService) ValidateTimebox(ctx context.Context, userID uuid.UUID, date entities.Date, additionalMinutes int) error {
	tasks, err := s.taskRepo.ListScheduledOn(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("failed to load scheduled tasks: %w", err)
	}

	var usedMinutes int
	for _, task := range tasks {
		if task.EffectiveStatus() == entities.TaskStatusActive {
			usedMinutes += task.DurationMinutes
		}
	}

	usedHours := round2(float64(usedMinutes) / 60)
	availableHours, err := s.availableHours(ctx, userID, date)
	if err != nil {
		return err
	}

	newHours := float64(additionalMinutes) / 60
	total := usedHours + newHours

	if total > availableHours {
		return &entities.BudgetExceededError{
			AvailableHours:  availableHours,
			UsedHours:       usedHours,
			AttemptingToAdd: newHours,
			WouldTotal:      round2(total),
		}
	}

	return nil
}

func (s *ScheduleService) availableHours(ctx context.Context, userID uuid.UUID, date entities.Date) (float64, error) {
	config, err := s.configRepo.Get(ctx, userID, date)
	if err == entities.ErrConfigNotFound {
		return entities.DefaultAvailableHours, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load daily config: %w", err)
	}
	return config.AvailableHours, nil
}

// sortInstances orders a day: energy priority first, then context tag with
// untagged work last, then case-insensitive title.
func sortInstances(instances []entities.TaskInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		a, b := &instances[i], &instances[j]
		if pa, pb := a.EnergyLevel.Priority(), b.EnergyLevel.Priority(); pa != pb {
			return pa < pb
		}
		if ca, cb := contextKey(a.ContextTag), contextKey(b.ContextTag); ca != cb {
			return ca < cb
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

func contextKey(tag *string) string {
	if tag == nil || *tag == "" {
		return "zzz"
	}
	return *tag
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
