package entities

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums and types
type EnergyLevel string

const (
	EnergyHigh    EnergyLevel = "HIGH_ENERGY"
	EnergyRenewal EnergyLevel = "RENEWAL"
	EnergyLow     EnergyLevel = "LOW_ENERGY"
)

type TaskStatus string

const (
	TaskStatusActive        TaskStatus = "ACTIVE"
	TaskStatusDone          TaskStatus = "DONE"
	TaskStatusDelegated     TaskStatus = "DELEGATED"
	TaskStatusPendingReview TaskStatus = "PENDING_REVIEW"
)

// Priority returns the sort rank of an energy level for daily views.
// High-energy work comes first, renewal second, low-energy last.
func (e EnergyLevel) Priority() int {
	switch e {
	case EnergyHigh:
		return 1
	case EnergyRenewal:
		return 2
	case EnergyLow:
		return 3
	default:
		return 999
	}
}

func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyHigh, EnergyRenewal, EnergyLow:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusActive, TaskStatusDone, TaskStatusDelegated, TaskStatusPendingReview:
		return true
	default:
		return false
	}
}

// Date is a calendar date without a time component. It marshals as
// "YYYY-MM-DD" and is stored as the same string in the database, so
// lexicographic SQL comparisons order chronologically.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: "invalid date, use YYYY-MM-DD"}
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{d.Time.AddDate(0, 0, n)} }

// DaysSince returns the number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time.Sub(other.Time).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(dateLayout), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// User represents an account in the system
type User struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Username             string    `json:"username" db:"username"`
	PersonalName         string    `json:"personal_name" db:"personal_name"`
	Email                string    `json:"email" db:"email"`
	PasswordHash         string    `json:"-" db:"password_hash"`
	ProfilePhoto         []byte    `json:"-" db:"profile_photo"`
	ProfilePhotoMimetype *string   `json:"-" db:"profile_photo_mimetype"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// HasPhoto reports whether a profile photo is stored.
func (u *User) HasPhoto() bool { return len(u.ProfilePhoto) > 0 }

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_.]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks the username format rules.
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return &ValidationError{Field: "username", Message: "username must be 3-20 chars: lowercase letters, digits, '_' or '.'"}
	}
	return nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if len(email) > 120 || !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	return nil
}

// ValidatePassword requires at least 6 chars with a letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return &ValidationError{Field: "password", Message: "password must have at least 6 characters"}
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return &ValidationError{Field: "password", Message: "password must contain letters and digits"}
	}
	return nil
}

// Task is a stored unit of work. For repeatable tasks the row acts as a
// template: DateScheduled is the anchor date, and Status/CompletedAt track
// only the anchor occurrence. Completion of later occurrences lives in
// TaskCompletion rows.
type Task struct {
	ID              int64       `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"-" db:"user_id"`
	Title           string      `json:"title" db:"title"`
	Description     *string     `json:"description" db:"description"`
	EnergyLevel     EnergyLevel `json:"energy_level" db:"energy_level"`
	DurationMinutes int         `json:"duration_minutes" db:"duration_minutes"`
	Status          TaskStatus  `json:"status" db:"status"`
	DateScheduled   Date        `json:"date_scheduled" db:"date_scheduled"`
	ScheduledTime   *string     `json:"scheduled_time" db:"scheduled_time"`
	RoleTag         *string     `json:"role_tag" db:"role_tag"`
	ContextTag      *string     `json:"context_tag" db:"context_tag"`
	DelegatedTo     *string     `json:"delegated_to" db:"delegated_to"`
	FollowUpDate    *Date       `json:"follow_up_date" db:"follow_up_date"`
	IsRepeatable    bool        `json:"is_repeatable" db:"is_repeatable"`
	RepeatCount     int         `json:"repeat_count" db:"repeat_count"`
	RepeatDays      *int        `json:"repeat_days" db:"repeat_days"`
	CompletedAt     *time.Time  `json:"completed_at" db:"completed_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// IsDelegated reports whether the task has been handed to someone else.
func (t *Task) IsDelegated() bool {
	return t.DelegatedTo != nil && strings.TrimSpace(*t.DelegatedTo) != ""
}

// EffectiveStatus is the status planning views display: a delegated task
// reads as DELEGATED unless it has actually been completed.
func (t *Task) EffectiveStatus() TaskStatus {
	if t.IsDelegated() && t.Status != TaskStatusDone {
		return TaskStatusDelegated
	}
	return t.Status
}

// TaskInstance is the projection of a task onto a concrete calendar date.
// Instances are produced on the fly and never persisted; a virtual instance
// of a repeatable template shares the template's ID.
type TaskInstance struct {
	TaskID          int64       `json:"id"`
	Title           string      `json:"title"`
	Description     *string     `json:"description"`
	EnergyLevel     EnergyLevel `json:"energy_level"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          TaskStatus  `json:"status"`
	DateScheduled   Date        `json:"date_scheduled"`
	ScheduledTime   *string     `json:"scheduled_time"`
	RoleTag         *string     `json:"role_tag"`
	ContextTag      *string     `json:"context_tag"`
	DelegatedTo     *string     `json:"delegated_to"`
	FollowUpDate    *Date       `json:"follow_up_date"`
	IsRepeatable    bool        `json:"is_repeatable"`
	RepeatCount     int         `json:"repeat_count"`
	RepeatDays      *int        `json:"repeat_days"`
	CompletedAt     *time.Time  `json:"completed_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Instance projects a stored task onto its own scheduled date. The instance
// carries the effective status, so a delegated row always reads DELEGATED
// even if the stored column drifted.
func (t *Task) Instance() TaskInstance {
	return t.instanceOn(t.DateScheduled, t.EffectiveStatus(), t.RepeatCount)
}

// InstanceWithStatus projects the anchor occurrence with an overridden
// status, used when a completion record exists for the anchor date itself.
func (t *Task) InstanceWithStatus(status TaskStatus) TaskInstance {
	return t.instanceOn(t.DateScheduled, status, 1)
}

// VirtualInstance synthesizes the occurrence of a repeatable template on a
// later date. repeatCount counts the anchor day as day 1.
func (t *Task) VirtualInstance(date Date, status TaskStatus, repeatCount int) TaskInstance {
	return t.instanceOn(date, status, repeatCount)
}

func (t *Task) instanceOn(date Date, status TaskStatus, repeatCount int) TaskInstance {
	return TaskInstance{
		TaskID:          t.ID,
		Title:           t.Title,
		Description:     t.Description,
		EnergyLevel:     t.EnergyLevel,
		DurationMinutes: t.DurationMinutes,
		Status:          status,
		DateScheduled:   date,
		ScheduledTime:   t.ScheduledTime,
		RoleTag:         t.RoleTag,
		ContextTag:      t.ContextTag,
		DelegatedTo:     t.DelegatedTo,
		FollowUpDate:    t.FollowUpDate,
		IsRepeatable:    t.IsRepeatable,
		RepeatCount:     repeatCount,
		RepeatDays:      t.RepeatDays,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// IsDelegated reports whether the instance is on someone else's plate.
func (ti *TaskInstance) IsDelegated() bool {
	return ti.DelegatedTo != nil && strings.TrimSpace(*ti.DelegatedTo) != ""
}

// EffectiveStatus mirrors Task.EffectiveStatus for materialized instances.
func (ti *TaskInstance) EffectiveStatus() TaskStatus {
	if ti.IsDelegated() && ti.Status != TaskStatusDone {
		return TaskStatusDelegated
	}
	return ti.Status
}

// DailyConfig is the per-user, per-date hour budget. Unique per (user, date).
type DailyConfig struct {
	ID             int64     `json:"id" db:"id"`
	UserID         uuid.UUID `json:"-" db:"user_id"`
	Date           Date      `json:"date" db:"date"`
	AvailableHours float64   `json:"available_hours" db:"available_hours"`
}

// DefaultAvailableHours applies when no DailyConfig row exists for a date.
const DefaultAvailableHours = 8.0

// TaskCompletion records the done/active state of one (task, date) pair.
// Unique per (task, date); deleting the row reverts that date to ACTIVE.
type TaskCompletion struct {
	ID          int64      `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"-" db:"user_id"`
	TaskID      int64      `json:"task_id" db:"task_id"`
	Date        Date       `json:"date" db:"date"`
	Status      TaskStatus `json:"status" db:"status"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// DaySummary aggregates a materialized day.
type DaySummary struct {
	TotalTasks     int     `json:"total_tasks"`
	UsedHours      float64 `json:"used_hours"`
	AvailableHours float64 `json:"available_hours"`
	RemainingHours float64 `json:"remaining_hours"`
}
