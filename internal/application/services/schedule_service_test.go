package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/ports"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

type scheduleFixture struct {
	service     *ScheduleService
	tasks       *fakeTaskRepo
	completions *fakeCompletionRepo
	configs     *fakeConfigRepo
	clock       ports.FixedClock
	userID      uuid.UUID
}

func newScheduleFixture() *scheduleFixture {
	tasks := newFakeTaskRepo()
	completions := newFakeCompletionRepo()
	configs := newFakeConfigRepo()
	clock := ports.FixedClock{Instant: time.Date(2026, 3, 10, 15, 0, 0, 0, ports.UserZone)}

	return &scheduleFixture{
		service:     NewScheduleService(tasks, completions, configs, clock, testLogger()),
		tasks:       tasks,
		completions: completions,
		configs:     configs,
		clock:       clock,
		userID:      uuid.New(),
	}
}

func (f *scheduleFixture) addTask(t *testing.T, task *entities.Task) *entities.Task {
	t.Helper()
	task.UserID = f.userID
	if task.Status == "" {
		task.Status = entities.TaskStatusActive
	}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func TestDailyTasksMaterializesRepeatableOccurrences(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	anchor := f.addTask(t, &entities.Task{
		Title:           "write report",
		EnergyLevel:     entities.EnergyHigh,
		DurationMinutes: 60,
		DateScheduled:   date,
	})

	unbounded := f.addTask(t, &entities.Task{
		Title:           "morning run",
		EnergyLevel:     entities.EnergyRenewal,
		DurationMinutes: 30,
		DateScheduled:   date.AddDays(-3),
		IsRepeatable:    true,
	})

	// Window of 3 days covers the anchor day and the two after it; by day
	// four the template no longer produces occurrences.
	f.addTask(t, &entities.Task{
		Title:           "expired window",
		EnergyLevel:     entities.EnergyLow,
		DurationMinutes: 15,
		DateScheduled:   date.AddDays(-3),
		IsRepeatable:    true,
		RepeatDays:      intPtr(3),
	})

	inWindow := f.addTask(t, &entities.Task{
		Title:           "still in window",
		EnergyLevel:     entities.EnergyLow,
		DurationMinutes: 15,
		DateScheduled:   date.AddDays(-3),
		IsRepeatable:    true,
		RepeatDays:      intPtr(4),
	})

	response, err := f.service.DailyTasks(ctx, f.userID, date)
	require.NoError(t, err)

	ids := make(map[int64]entities.TaskInstance, len(response.Tasks))
	for _, instance := range response.Tasks {
		ids[instance.TaskID] = instance
	}

	require.Len(t, response.Tasks, 3)
	assert.Contains(t, ids, anchor.ID)
	assert.Contains(t, ids, unbounded.ID)
	assert.Contains(t, ids, inWindow.ID)

	virtual := ids[unbounded.ID]
	assert.True(t, virtual.DateScheduled.Equal(date))
	assert.Equal(t, entities.TaskStatusActive, virtual.Status)
	assert.Equal(t, 4, virtual.RepeatCount, "anchor day counts as day 1")
}

func TestDailyTasksAppliesCompletionOverrides(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)
	now := f.clock.Now()

	template := f.addTask(t, &entities.Task{
		Title:           "meditation",
		EnergyLevel:     entities.EnergyRenewal,
		DurationMinutes: 20,
		DateScheduled:   date.AddDays(-5),
		IsRepeatable:    true,
	})

	repeatableAnchor := f.addTask(t, &entities.Task{
		Title:           "daily review",
		EnergyLevel:     entities.EnergyLow,
		DurationMinutes: 10,
		DateScheduled:   date,
		IsRepeatable:    true,
	})

	for _, taskID := range []int64{template.ID, repeatableAnchor.ID} {
		require.NoError(t, f.completions.Create(ctx, &entities.TaskCompletion{
			UserID:      f.userID,
			TaskID:      taskID,
			Date:        date,
			Status:      entities.TaskStatusDone,
			CompletedAt: &now,
		}))
	}

	response, err := f.service.DailyTasks(ctx, f.userID, date)
	require.NoError(t, err)
	require.Len(t, response.Tasks, 2)

	for _, instance := range response.Tasks {
		assert.Equal(t, entities.TaskStatusDone, instance.Status)
	}

	for _, instance := range response.Tasks {
		if instance.TaskID == repeatableAnchor.ID {
			assert.Equal(t, 1, instance.RepeatCount)
		}
	}
}

func TestDailyTasksSortOrder(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	f.addTask(t, &entities.Task{Title: "Untagged low", EnergyLevel: entities.EnergyLow, DurationMinutes: 10, DateScheduled: date})
	f.addTask(t, &entities.Task{Title: "walk", EnergyLevel: entities.EnergyRenewal, DurationMinutes: 10, DateScheduled: date})
	f.addTask(t, &entities.Task{Title: "Bravo", EnergyLevel: entities.EnergyHigh, DurationMinutes: 10, DateScheduled: date, ContextTag: strPtr("deep")})
	f.addTask(t, &entities.Task{Title: "alpha", EnergyLevel: entities.EnergyHigh, DurationMinutes: 10, DateScheduled: date, ContextTag: strPtr("deep")})
	f.addTask(t, &entities.Task{Title: "calls", EnergyLevel: entities.EnergyHigh, DurationMinutes: 10, DateScheduled: date})

	response, err := f.service.DailyTasks(ctx, f.userID, date)
	require.NoError(t, err)
	require.Len(t, response.Tasks, 5)

	titles := make([]string, 0, len(response.Tasks))
	for _, instance := range response.Tasks {
		titles = append(titles, instance.Title)
	}

	// High energy first; within a level tagged work precedes untagged, and
	// titles compare case-insensitively.
	assert.Equal(t, []string{"alpha", "Bravo", "calls", "walk", "Untagged low"}, titles)
}

func TestDailyTasksSummaryExcludesDelegated(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	f.addTask(t, &entities.Task{Title: "mine", EnergyLevel: entities.EnergyHigh, DurationMinutes: 90, DateScheduled: date})
	f.addTask(t, &entities.Task{
		Title:           "handed off",
		EnergyLevel:     entities.EnergyLow,
		DurationMinutes: 120,
		DateScheduled:   date,
		Status:          entities.TaskStatusDelegated,
		DelegatedTo:     strPtr("ana"),
	})

	response, err := f.service.DailyTasks(ctx, f.userID, date)
	require.NoError(t, err)

	assert.Equal(t, 1.5, response.Summary.UsedHours)
	assert.Equal(t, entities.DefaultAvailableHours, response.Summary.AvailableHours)
	assert.Equal(t, 6.5, response.Summary.RemainingHours)
	assert.Equal(t, 1, response.Summary.TotalTasks, "only ACTIVE tasks counted")
}

func TestDailyTasksDelegatedRowReadsDelegated(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	// Row written with a stale status column; delegated_to wins in the view.
	f.addTask(t, &entities.Task{
		Title:           "stale status",
		EnergyLevel:     entities.EnergyHigh,
		DurationMinutes: 60,
		DateScheduled:   date,
		Status:          entities.TaskStatusActive,
		DelegatedTo:     strPtr("ana"),
	})

	response, err := f.service.DailyTasks(ctx, f.userID, date)
	require.NoError(t, err)
	require.Len(t, response.Tasks, 1)

	assert.Equal(t, entities.TaskStatusDelegated, response.Tasks[0].Status)
	assert.Equal(t, 0, response.Summary.TotalTasks)
	assert.Equal(t, 0.0, response.Summary.UsedHours)

	// The delegated hour does not count against the budget either.
	assert.NoError(t, f.service.ValidateTimebox(ctx, f.userID, date, 480))
}

func TestToggleDateAnchorRoundTrip(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	task := f.addTask(t, &entities.Task{
		Title:           "one-off",
		EnergyLevel:     entities.EnergyHigh,
		DurationMinutes: 30,
		DateScheduled:   date,
	})

	response, err := f.service.ToggleDate(ctx, f.userID, task.ID, date)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, response.Status)

	stored, err := f.tasks.GetByID(ctx, f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, f.clock.Now(), *stored.CompletedAt)

	response, err = f.service.ToggleDate(ctx, f.userID, task.ID, date)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusActive, response.Status)

	stored, err = f.tasks.GetByID(ctx, f.userID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusActive, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	_, err = f.completions.Get(ctx, f.userID, task.ID, date)
	assert.ErrorIs(t, err, entities.ErrCompletionNotFound)
}

func TestToggleDateLeavesRepeatableTemplateActive(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	anchor := entities.NewDate(2026, 3, 1)
	occurrence := entities.NewDate(2026, 3, 10)

	template := f.addTask(t, &entities.Task{
		Title:           "stretch",
		EnergyLevel:     entities.EnergyRenewal,
		DurationMinutes: 15,
		DateScheduled:   anchor,
		IsRepeatable:    true,
	})

	response, err := f.service.ToggleDate(ctx, f.userID, template.ID, occurrence)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, response.Status)

	stored, err := f.tasks.GetByID(ctx, f.userID, template.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusActive, stored.Status, "template row stays ACTIVE")
	assert.Nil(t, stored.CompletedAt)

	completion, err := f.completions.Get(ctx, f.userID, template.ID, occurrence)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, completion.Status)
}

func TestToggleDateUnknownTask(t *testing.T) {
	f := newScheduleFixture()

	_, err := f.service.ToggleDate(context.Background(), f.userID, 404, entities.NewDate(2026, 3, 10))
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestValidateTimebox(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	// 7.5 hours of stored ACTIVE work.
	f.addTask(t, &entities.Task{Title: "block a", EnergyLevel: entities.EnergyHigh, DurationMinutes: 270, DateScheduled: date})
	f.addTask(t, &entities.Task{Title: "block b", EnergyLevel: entities.EnergyLow, DurationMinutes: 180, DateScheduled: date})

	// DONE work does not count against the budget.
	done := f.addTask(t, &entities.Task{Title: "finished", EnergyLevel: entities.EnergyLow, DurationMinutes: 600, DateScheduled: date})
	done.Status = entities.TaskStatusDone
	require.NoError(t, f.tasks.Update(ctx, done))

	err := f.service.ValidateTimebox(ctx, f.userID, date, 60)
	var budgetErr *entities.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 8.0, budgetErr.AvailableHours)
	assert.Equal(t, 7.5, budgetErr.UsedHours)
	assert.Equal(t, 1.0, budgetErr.AttemptingToAdd)
	assert.Equal(t, 8.5, budgetErr.WouldTotal)

	assert.NoError(t, f.service.ValidateTimebox(ctx, f.userID, date, 30))
}

func TestValidateTimeboxUsesDailyConfig(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 14)

	require.NoError(t, f.configs.Upsert(ctx, &entities.DailyConfig{
		UserID:         f.userID,
		Date:           date,
		AvailableHours: 4,
	}))

	f.addTask(t, &entities.Task{Title: "errand", EnergyLevel: entities.EnergyLow, DurationMinutes: 180, DateScheduled: date})

	err := f.service.ValidateTimebox(ctx, f.userID, date, 120)
	var budgetErr *entities.BudgetExceededError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 4.0, budgetErr.AvailableHours)

	assert.NoError(t, f.service.ValidateTimebox(ctx, f.userID, date, 60))
}
