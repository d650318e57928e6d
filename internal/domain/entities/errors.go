package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrConfigNotFound     = errors.New("daily config not found")
	ErrCompletionNotFound = errors.New("completion not found")
	ErrBackupNotFound     = errors.New("backup not found")
	ErrPhotoNotFound      = errors.New("profile photo not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError rejects a request field with a message suitable for the
// client.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError signals a uniqueness violation (username or email taken).
type ConflictError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BudgetExceededError is returned when adding a task would push a day past
// its available hours. All figures are in hours.
type BudgetExceededError struct {
	AvailableHours  float64 `json:"available_hours"`
	UsedHours       float64 `json:"used_hours"`
	AttemptingToAdd float64 `json:"attempting_to_add"`
	WouldTotal      float64 `json:"would_total"`
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("timebox exceeded: %.2fh used of %.2fh available, adding %.2fh would total %.2fh",
		e.UsedHours, e.AvailableHours, e.AttemptingToAdd, e.WouldTotal)
}
