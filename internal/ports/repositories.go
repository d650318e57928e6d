package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/triade/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByLogin(ctx context.Context, login string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePhoto(ctx context.Context, id uuid.UUID, photo []byte, mimetype *string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskRepository defines the interface for task data operations. All reads
// and writes are scoped to the owning user.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// ListScheduledOn returns tasks anchored exactly on the given date.
	ListScheduledOn(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error)
	// ListRepeatableBefore returns ACTIVE repeatable templates anchored
	// strictly before the given date.
	ListRepeatableBefore(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error)
	// ListRepeatable returns all repeatable templates regardless of status.
	ListRepeatable(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)

	ListPendingReview(ctx context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error)
	ListDelegated(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)
	ListInRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.Task, error)

	// ListCompletedBetween returns non-repeatable DONE tasks whose
	// completed_at falls inside [start, end].
	ListCompletedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*entities.Task, error)
	// ListCompleted returns all non-repeatable DONE tasks with a recorded
	// completion timestamp.
	ListCompleted(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)

	// DeleteCompletedBefore removes DONE tasks scheduled before the cutoff
	// date and returns how many rows went away.
	DeleteCompletedBefore(ctx context.Context, cutoff entities.Date) (int64, error)
	// MarkPendingReview flips still-ACTIVE non-repeatable tasks scheduled on
	// the given date to PENDING_REVIEW, across all users.
	MarkPendingReview(ctx context.Context, date entities.Date) (int64, error)
}

// CompletionRepository manages per-date completion records of tasks.
type CompletionRepository interface {
	Create(ctx context.Context, completion *entities.TaskCompletion) error
	Get(ctx context.Context, userID uuid.UUID, taskID int64, date entities.Date) (*entities.TaskCompletion, error)
	Delete(ctx context.Context, userID uuid.UUID, taskID int64, date entities.Date) error
	DeleteAllForTask(ctx context.Context, taskID int64) error
	// MapForDate returns date-specific statuses keyed by task ID.
	MapForDate(ctx context.Context, userID uuid.UUID, date entities.Date) (map[int64]entities.TaskStatus, error)
	// ListDoneForTask returns DONE completion records of one template.
	ListDoneForTask(ctx context.Context, taskID int64) ([]*entities.TaskCompletion, error)
	// ListDoneInRange returns DONE completion records dated inside [start, end].
	ListDoneInRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.TaskCompletion, error)
}

// ConfigRepository manages daily hour budgets.
type ConfigRepository interface {
	Get(ctx context.Context, userID uuid.UUID, date entities.Date) (*entities.DailyConfig, error)
	Upsert(ctx context.Context, config *entities.DailyConfig) error
	// MapForRange returns available hours keyed by "YYYY-MM-DD" for every
	// configured date inside [start, end].
	MapForRange(ctx context.Context, userID uuid.UUID, start, end entities.Date) (map[string]float64, error)
}

// AuthRepository defines the interface for refresh token persistence
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int64      `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
