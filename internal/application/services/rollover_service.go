package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/triade/core/internal/infrastructure/config"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// RolloverService runs the nightly job that moves unfinished one-off tasks
// of the previous day into PENDING_REVIEW. Repeatable templates are left
// ACTIVE; they anchor future occurrences.
type RolloverService struct {
	taskRepo ports.TaskRepository
	authRepo ports.AuthRepository
	clock    ports.Clock
	cfg      config.SchedulerConfig
	logger   *logger.Logger
	cron     *cron.Cron
}

// NewRolloverService creates the nightly rollover scheduler
func NewRolloverService(
	taskRepo ports.TaskRepository,
	authRepo ports.AuthRepository,
	clock ports.Clock,
	cfg config.SchedulerConfig,
	logger *logger.Logger,
) *RolloverService {
	return &RolloverService{
		taskRepo: taskRepo,
		authRepo: authRepo,
		clock:    clock,
		cfg:      cfg,
		logger:   logger.WithComponent("rollover"),
	}
}

// Start schedules the job in the user-facing zone so "midnight" matches the
// planner's calendar.
func (s *RolloverService) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("Rollover scheduler disabled")
		return nil
	}

	s.cron = cron.New(cron.WithLocation(ports.UserZone))

	if _, err := s.cron.AddFunc(s.cfg.RolloverSpec, s.runOnce); err != nil {
		return fmt.Errorf("failed to schedule rollover job: %w", err)
	}

	s.cron.Start()
	s.logger.Infow("Rollover scheduler started", "spec", s.cfg.RolloverSpec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *RolloverService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *RolloverService) runOnce() {
	if err := s.Run(context.Background()); err != nil {
		s.logger.WithError(err).Error("Rollover run failed")
	}
}

// Run executes one rollover pass: yesterday's still-ACTIVE one-off tasks
// become PENDING_REVIEW, and expired refresh tokens are swept out.
func (s *RolloverService) Run(ctx context.Context) error {
	yesterday := s.clock.Today().AddDays(-1)

	moved, err := s.taskRepo.MarkPendingReview(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark pending review: %w", err)
	}

	if err := s.authRepo.CleanupExpiredTokens(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to cleanup expired refresh tokens")
	}

	s.logger.Infow("Rollover completed", "date", yesterday, "tasks_moved", moved)
	return nil
}
