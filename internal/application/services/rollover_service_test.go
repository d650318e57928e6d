package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/config"
	"github.com/triade/core/internal/ports"
)

func TestRolloverMovesOnlyOneOffActiveTasks(t *testing.T) {
	tasks := newFakeTaskRepo()
	authRepo := &fakeAuthRepo{}
	clock := ports.FixedClock{Instant: time.Date(2026, 3, 11, 0, 0, 30, 0, ports.UserZone)}
	userID := uuid.New()

	yesterday := entities.NewDate(2026, 3, 10)
	ctx := context.Background()

	leftover := &entities.Task{UserID: userID, Title: "leftover", EnergyLevel: entities.EnergyHigh, DurationMinutes: 30, Status: entities.TaskStatusActive, DateScheduled: yesterday}
	repeatable := &entities.Task{UserID: userID, Title: "habit", EnergyLevel: entities.EnergyRenewal, DurationMinutes: 10, Status: entities.TaskStatusActive, DateScheduled: yesterday, IsRepeatable: true}
	finished := &entities.Task{UserID: userID, Title: "finished", EnergyLevel: entities.EnergyLow, DurationMinutes: 20, Status: entities.TaskStatusDone, DateScheduled: yesterday}
	today := &entities.Task{UserID: userID, Title: "today", EnergyLevel: entities.EnergyHigh, DurationMinutes: 20, Status: entities.TaskStatusActive, DateScheduled: yesterday.AddDays(1)}

	for _, task := range []*entities.Task{leftover, repeatable, finished, today} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	service := NewRolloverService(tasks, authRepo, clock, config.SchedulerConfig{}, testLogger())
	require.NoError(t, service.Run(ctx))

	assertStatus := func(id int64, want entities.TaskStatus) {
		stored, err := tasks.GetByID(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.Status)
	}

	assertStatus(leftover.ID, entities.TaskStatusPendingReview)
	assertStatus(repeatable.ID, entities.TaskStatusActive)
	assertStatus(finished.ID, entities.TaskStatusDone)
	assertStatus(today.ID, entities.TaskStatusActive)

	assert.Equal(t, 1, authRepo.cleanupCalls)
}
