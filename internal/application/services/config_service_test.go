package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/ports"
)

func TestGetDailyFallsBackToDefault(t *testing.T) {
	configs := newFakeConfigRepo()
	service := NewConfigService(configs, testLogger())
	userID := uuid.New()
	date := entities.NewDate(2026, 3, 10)

	response, err := service.GetDaily(context.Background(), userID, date)
	require.NoError(t, err)

	assert.Equal(t, entities.DefaultAvailableHours, response.AvailableHours)
	assert.True(t, response.IsDefault)
}

func TestSetDailyThenGet(t *testing.T) {
	configs := newFakeConfigRepo()
	service := NewConfigService(configs, testLogger())
	userID := uuid.New()
	ctx := context.Background()
	date := entities.NewDate(2026, 3, 10)

	saved, err := service.SetDaily(ctx, userID, ports.SetDailyConfigRequest{Date: date, AvailableHours: 5.5})
	require.NoError(t, err)
	assert.Equal(t, 5.5, saved.AvailableHours)

	response, err := service.GetDaily(ctx, userID, date)
	require.NoError(t, err)
	assert.Equal(t, 5.5, response.AvailableHours)
	assert.False(t, response.IsDefault)

	// Same date again replaces the value.
	_, err = service.SetDaily(ctx, userID, ports.SetDailyConfigRequest{Date: date, AvailableHours: 10})
	require.NoError(t, err)
	response, err = service.GetDaily(ctx, userID, date)
	require.NoError(t, err)
	assert.Equal(t, 10.0, response.AvailableHours)
}

func TestSetDailyValidation(t *testing.T) {
	service := NewConfigService(newFakeConfigRepo(), testLogger())
	userID := uuid.New()
	ctx := context.Background()

	var validationErr *entities.ValidationError

	_, err := service.SetDaily(ctx, userID, ports.SetDailyConfigRequest{AvailableHours: 8})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.SetDaily(ctx, userID, ports.SetDailyConfigRequest{Date: entities.NewDate(2026, 3, 10), AvailableHours: 0})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.SetDaily(ctx, userID, ports.SetDailyConfigRequest{Date: entities.NewDate(2026, 3, 10), AvailableHours: 25})
	assert.ErrorAs(t, err, &validationErr)
}
