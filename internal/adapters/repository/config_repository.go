package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/ports"
)

// ConfigRepositoryImpl implements the ConfigRepository interface
type ConfigRepositoryImpl struct {
	db *sqlx.DB
}

// NewConfigRepository creates a new daily config repository
func NewConfigRepository(db *sqlx.DB) ports.ConfigRepository {
	return &ConfigRepositoryImpl{db: db}
}

func (r *ConfigRepositoryImpl) Get(ctx context.Context, userID uuid.UUID, date entities.Date) (*entities.DailyConfig, error) {
	query := `
		SELECT id, user_id, date, available_hours
		FROM daily_configs
		WHERE user_id = ? AND date = ?`

	var config entities.DailyConfig
	err := r.db.GetContext(ctx, &config, query, userID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrConfigNotFound
		}
		return nil, fmt.Errorf("get daily config: %w", err)
	}

	return &config, nil
}

func (r *ConfigRepositoryImpl) Upsert(ctx context.Context, config *entities.DailyConfig) error {
	query := `
		INSERT INTO daily_configs (user_id, date, available_hours)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET available_hours = excluded.available_hours`

	if _, err := r.db.ExecContext(ctx, query, config.UserID, config.Date, config.AvailableHours); err != nil {
		return fmt.Errorf("upsert daily config: %w", err)
	}

	return nil
}

func (r *ConfigRepositoryImpl) MapForRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) (map[string]float64, error) {
	query := `
		SELECT date, available_hours
		FROM daily_configs
		WHERE user_id = ? AND date >= ? AND date <= ?`

	rows := []struct {
		Date           entities.Date `db:"date"`
		AvailableHours float64       `db:"available_hours"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("map daily configs: %w", err)
	}

	configs := make(map[string]float64, len(rows))
	for _, row := range rows {
		configs[row.Date.String()] = row.AvailableHours
	}

	return configs, nil
}
