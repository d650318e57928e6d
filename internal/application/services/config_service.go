package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// ConfigService manages the per-day hour budgets.
type ConfigService struct {
	configRepo ports.ConfigRepository
	logger     *logger.Logger
}

// NewConfigService creates a new daily config service
func NewConfigService(configRepo ports.ConfigRepository, logger *logger.Logger) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		logger:     logger,
	}
}

// GetDaily returns the configured hours for a date, or the default marked
// as such when nothing was configured.
func (s *ConfigService) GetDaily(ctx context.Context, userID uuid.UUID, date entities.Date) (*ports.DailyConfigResponse, error) {
	config, err := s.configRepo.Get(ctx, userID, date)
	if err == entities.ErrConfigNotFound {
		return &ports.DailyConfigResponse{
			Date:           date,
			AvailableHours: entities.DefaultAvailableHours,
			IsDefault:      true,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &ports.DailyConfigResponse{
		Date:           config.Date,
		AvailableHours: config.AvailableHours,
	}, nil
}

// SetDaily creates or replaces the hour budget of a date.
func (s *ConfigService) SetDaily(ctx context.Context, userID uuid.UUID, req ports.SetDailyConfigRequest) (*ports.DailyConfigResponse, error) {
	if req.Date.IsZero() {
		return nil, &entities.ValidationError{Field: "date", Message: "date is required"}
	}
	if req.AvailableHours <= 0 || req.AvailableHours > 24 {
		return nil, &entities.ValidationError{Field: "available_hours", Message: "available_hours must be between 0 and 24"}
	}

	config := &entities.DailyConfig{
		UserID:         userID,
		Date:           req.Date,
		AvailableHours: req.AvailableHours,
	}
	if err := s.configRepo.Upsert(ctx, config); err != nil {
		return nil, err
	}

	s.logger.Infow("Daily config saved", "user_id", userID, "date", req.Date, "available_hours", req.AvailableHours)

	return &ports.DailyConfigResponse{
		Date:           config.Date,
		AvailableHours: config.AvailableHours,
	}, nil
}
