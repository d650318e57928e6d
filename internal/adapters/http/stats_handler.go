package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/triade/core/internal/application/services"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/backup"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// StatsHandler handles the dashboard and the completed task history
type StatsHandler struct {
	statsService *services.StatsService
	logger       *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

// Dashboard returns the energy distribution and insight for a period
func (h *StatsHandler) Dashboard(c echo.Context) error {
	userID := getUserIDFromContext(c)

	period := c.QueryParam("period")
	if period == "" {
		period = "week"
	}

	response, err := h.statsService.Dashboard(c.Request().Context(), userID, period)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// History returns the paginated list of completed tasks
func (h *StatsHandler) History(c echo.Context) error {
	userID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	search := c.QueryParam("search")

	response, err := h.statsService.History(c.Request().Context(), userID, page, perPage, search)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// ConfigHandler handles the per-day hour budgets
type ConfigHandler struct {
	configService *services.ConfigService
	clock         ports.Clock
	logger        *logger.Logger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configService *services.ConfigService, clock ports.Clock, logger *logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		clock:         clock,
		logger:        logger,
	}
}

// GetDaily returns the hour budget of a date (default today)
func (h *ConfigHandler) GetDaily(c echo.Context) error {
	userID := getUserIDFromContext(c)

	date := h.clock.Today()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := entities.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	response, err := h.configService.GetDaily(c.Request().Context(), userID, date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// SetDaily creates or replaces the hour budget of a date
func (h *ConfigHandler) SetDaily(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.SetDailyConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.configService.SetDaily(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// BackupHandler exposes database backup and restore
type BackupHandler struct {
	manager *backup.Manager
	logger  *logger.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(manager *backup.Manager, logger *logger.Logger) *BackupHandler {
	return &BackupHandler{
		manager: manager,
		logger:  logger,
	}
}

// Create writes a new timestamped backup of the database
func (h *BackupHandler) Create(c echo.Context) error {
	path, err := h.manager.Create()
	if err != nil {
		h.logger.WithError(err).Error("Backup creation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Backup creation failed")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Backup created",
		"backup":  path,
	})
}

// List returns available backups, newest first
func (h *BackupHandler) List(c echo.Context) error {
	backups, err := h.manager.List()
	if err != nil {
		h.logger.WithError(err).Error("Backup listing failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Backup listing failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"backups": backups,
		"total":   len(backups),
	})
}

// Restore overwrites the database with the named backup
func (h *BackupHandler) Restore(c echo.Context) error {
	result, err := h.manager.Restore(c.Param("filename"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
