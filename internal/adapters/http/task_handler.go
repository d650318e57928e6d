package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/triade/core/internal/application/services"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// TaskHandler handles task CRUD and the planning views built on top of it
type TaskHandler struct {
	taskService     *services.TaskService
	scheduleService *services.ScheduleService
	clock           ports.Clock
	logger          *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	taskService *services.TaskService,
	scheduleService *services.ScheduleService,
	clock ports.Clock,
	logger *logger.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskService:     taskService,
		scheduleService: scheduleService,
		clock:           clock,
		logger:          logger,
	}
}

// Daily returns the materialized task list of one date (default today)
func (h *TaskHandler) Daily(c echo.Context) error {
	userID := getUserIDFromContext(c)

	date, err := h.dateQueryParam(c, "date")
	if err != nil {
		return err
	}

	response, err := h.scheduleService.DailyTasks(c.Request().Context(), userID, date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Create creates a new task
func (h *TaskHandler) Create(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// Get returns a single task
func (h *TaskHandler) Get(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), userID, taskID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// Update applies a partial update to a task
func (h *TaskHandler) Update(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), userID, taskID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// Delete removes a task and its completion history
func (h *TaskHandler) Delete(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}

// ToggleDate flips the done state of a task on one calendar date
func (h *TaskHandler) ToggleDate(c echo.Context) error {
	userID := getUserIDFromContext(c)

	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}

	var req ToggleDateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	date := req.Date
	if date.IsZero() {
		date = h.clock.Today()
	}

	response, err := h.scheduleService.ToggleDate(c.Request().Context(), userID, taskID, date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// PendingReview lists unfinished tasks carried over from a date
func (h *TaskHandler) PendingReview(c echo.Context) error {
	userID := getUserIDFromContext(c)

	date, err := h.dateQueryParam(c, "date")
	if err != nil {
		return err
	}

	response, err := h.taskService.PendingReview(c.Request().Context(), userID, date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Delegated lists handed-off tasks ordered by follow-up date
func (h *TaskHandler) Delegated(c echo.Context) error {
	userID := getUserIDFromContext(c)

	response, err := h.taskService.Delegated(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Weekly returns the tasks and hour budgets of a date range. Without
// parameters the range is the current Monday-to-Sunday week.
func (h *TaskHandler) Weekly(c echo.Context) error {
	userID := getUserIDFromContext(c)

	today := h.clock.Today()
	start := today.AddDays(-((int(today.Time.Weekday()) + 6) % 7))

	if raw := c.QueryParam("start_date"); raw != "" {
		parsed, err := entities.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		start = parsed
	}

	end := start.AddDays(6)
	if raw := c.QueryParam("end_date"); raw != "" {
		parsed, err := entities.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		end = parsed
	}

	response, err := h.taskService.Weekly(c.Request().Context(), userID, start, end)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Cleanup purges DONE tasks older than the retention window
func (h *TaskHandler) Cleanup(c echo.Context) error {
	deleted, err := h.taskService.Cleanup(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":       "Cleanup completed",
		"deleted_tasks": deleted,
	})
}

func (h *TaskHandler) dateQueryParam(c echo.Context, name string) (entities.Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return h.clock.Today(), nil
	}

	date, err := entities.ParseDate(raw)
	if err != nil {
		return entities.Date{}, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return date, nil
}

func taskIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	return id, nil
}

// ToggleDateRequest carries the target date of a toggle; today when absent
type ToggleDateRequest struct {
	Date entities.Date `json:"date"`
}
