package ports

import (
	"github.com/google/uuid"
	"github.com/triade/core/internal/domain/entities"
)

// Request/Response Types shared between services and HTTP handlers.

// Auth related types
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=20"`
	PersonalName string `json:"personal_name" validate:"required,max=30"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
}

// LoginRequest accepts the account email or username in either field,
// matching clients that send one or the other.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// Login returns whichever identifier the client supplied, lowercased.
func (r LoginRequest) Login() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type UpdateProfileRequest struct {
	PersonalName *string `json:"personal_name" validate:"omitempty,min=1,max=30"`
	Email        *string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Task related types
type CreateTaskRequest struct {
	Title           string               `json:"title" validate:"required,max=40"`
	Description     *string              `json:"description" validate:"omitempty,max=100"`
	EnergyLevel     entities.EnergyLevel `json:"energy_level" validate:"required"`
	DurationMinutes int                  `json:"duration_minutes" validate:"required,min=1"`
	DateScheduled   entities.Date        `json:"date_scheduled"`
	ScheduledTime   *string              `json:"scheduled_time"`
	RoleTag         *string              `json:"role_tag" validate:"omitempty,max=30"`
	ContextTag      *string              `json:"context_tag"`
	DelegatedTo     *string              `json:"delegated_to" validate:"omitempty,max=50"`
	FollowUpDate    *entities.Date       `json:"follow_up_date"`
	IsRepeatable    bool                 `json:"is_repeatable"`
	RepeatDays      *int                 `json:"repeat_days" validate:"omitempty,min=1"`
}

// UpdateTaskRequest carries a partial update. Nil means "leave unchanged";
// the Clear* flags distinguish "set to null" from "not sent" for optional
// fields that clients may erase.
type UpdateTaskRequest struct {
	Title           *string               `json:"title" validate:"omitempty,max=40"`
	Description     *string               `json:"description" validate:"omitempty,max=100"`
	EnergyLevel     *entities.EnergyLevel `json:"energy_level"`
	DurationMinutes *int                  `json:"duration_minutes" validate:"omitempty,min=1"`
	Status          *entities.TaskStatus  `json:"status"`
	DateScheduled   *entities.Date        `json:"date_scheduled"`
	ScheduledTime   *string               `json:"scheduled_time"`
	RoleTag         *string               `json:"role_tag" validate:"omitempty,max=30"`
	ContextTag      *string               `json:"context_tag"`
	DelegatedTo     *string               `json:"delegated_to" validate:"omitempty,max=50"`
	FollowUpDate    *entities.Date        `json:"follow_up_date"`
	IsRepeatable    *bool                 `json:"is_repeatable"`
	RepeatDays      *int                  `json:"repeat_days"`

	ClearScheduledTime bool `json:"clear_scheduled_time"`
	ClearDelegatedTo   bool `json:"clear_delegated_to"`
	ClearFollowUpDate  bool `json:"clear_follow_up_date"`
	ClearRepeatDays    bool `json:"clear_repeat_days"`
}

// Schedule related types
type DailyTasksResponse struct {
	Date    entities.Date           `json:"date"`
	Tasks   []entities.TaskInstance `json:"tasks"`
	Summary entities.DaySummary     `json:"summary"`
}

type ToggleResponse struct {
	TaskID int64               `json:"task_id"`
	Date   entities.Date       `json:"date"`
	Status entities.TaskStatus `json:"status"`
}

type PendingReviewResponse struct {
	Date         entities.Date    `json:"date"`
	PendingTasks []*entities.Task `json:"pending_tasks"`
	Count        int              `json:"count"`
}

type DelegatedTasksResponse struct {
	Total int              `json:"total"`
	Tasks []*entities.Task `json:"tasks"`
}

type WeeklyTasksResponse struct {
	Tasks        []*entities.Task   `json:"tasks"`
	DailyConfigs map[string]float64 `json:"daily_configs"`
	StartDate    entities.Date      `json:"start_date"`
	EndDate      entities.Date      `json:"end_date"`
}

// Daily config types
type SetDailyConfigRequest struct {
	Date           entities.Date `json:"date"`
	AvailableHours float64       `json:"available_hours" validate:"required,gt=0,lte=24"`
}

type DailyConfigResponse struct {
	Date           entities.Date `json:"date"`
	AvailableHours float64       `json:"available_hours"`
	IsDefault      bool          `json:"is_default"`
}

// Stats related types
type DashboardResponse struct {
	Period           string                      `json:"period"`
	DateRange        DateRange                   `json:"date_range"`
	TotalMinutesDone int                         `json:"total_minutes_done"`
	Distribution     entities.EnergyDistribution `json:"distribution"`
	Insight          entities.Insight            `json:"insight"`
}

type DateRange struct {
	Start entities.Date `json:"start"`
	End   entities.Date `json:"end"`
}

// HistoryEntry is one completed occurrence in the task history.
type HistoryEntry struct {
	TaskID          int64                `json:"id"`
	Title           string               `json:"title"`
	EnergyLevel     entities.EnergyLevel `json:"energy_level"`
	DurationMinutes int                  `json:"duration_minutes"`
	CompletedAt     string               `json:"completed_at"`
	DateScheduled   entities.Date        `json:"date_scheduled"`
	ContextTag      *string              `json:"context_tag"`
	RoleTag         *string              `json:"role_tag"`
	Description     *string              `json:"description"`
}

type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

type HistoryResponse struct {
	Tasks      []HistoryEntry `json:"tasks"`
	Pagination Pagination     `json:"pagination"`
	SearchTerm *string        `json:"search_term"`
}

// Backup related types
type BackupInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

// Common response envelopes
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// UploadPhotoRequest carries a base64 data-URI photo upload.
type UploadPhotoRequest struct {
	Photo string `json:"photo" validate:"required"`
}

// UserID helper for handlers storing the authenticated user in context.
type AuthenticatedUser struct {
	ID       uuid.UUID
	Username string
}
