package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// In-memory repository fakes shared by the service tests.

func testLogger() *logger.Logger {
	return logger.NewNop()
}

type fakeTaskRepo struct {
	tasks  map[int64]*entities.Task
	nextID int64
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[int64]*entities.Task{}, nextID: 1}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entities.Task) error {
	task.ID = r.nextID
	r.nextID++
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.UpdatedAt = time.Now().UTC()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, userID uuid.UUID, id int64) (*entities.Task, error) {
	task, ok := r.tasks[id]
	if !ok || task.UserID != userID {
		return nil, entities.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *entities.Task) error {
	stored, ok := r.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return entities.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	task, ok := r.tasks[id]
	if !ok || task.UserID != userID {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) list(filter func(*entities.Task) bool) []*entities.Task {
	ids := make([]int64, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*entities.Task
	for _, id := range ids {
		if filter(r.tasks[id]) {
			clone := *r.tasks[id]
			out = append(out, &clone)
		}
	}
	return out
}

func (r *fakeTaskRepo) ListScheduledOn(_ context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.DateScheduled.Equal(date)
	}), nil
}

func (r *fakeTaskRepo) ListRepeatableBefore(_ context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.IsRepeatable && t.Status == entities.TaskStatusActive && t.DateScheduled.Before(date)
	}), nil
}

func (r *fakeTaskRepo) ListRepeatable(_ context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.IsRepeatable
	}), nil
}

func (r *fakeTaskRepo) ListPendingReview(_ context.Context, userID uuid.UUID, date entities.Date) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.DateScheduled.Equal(date) && t.Status == entities.TaskStatusPendingReview
	}), nil
}

func (r *fakeTaskRepo) ListDelegated(_ context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.IsDelegated()
	}), nil
}

func (r *fakeTaskRepo) ListInRange(_ context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && !t.DateScheduled.Before(start) && !t.DateScheduled.After(end) && !t.IsDelegated()
	}), nil
}

func (r *fakeTaskRepo) ListCompletedBetween(_ context.Context, userID uuid.UUID, start, end time.Time) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.Status == entities.TaskStatusDone && !t.IsRepeatable &&
			t.CompletedAt != nil && !t.CompletedAt.Before(start) && !t.CompletedAt.After(end)
	}), nil
}

func (r *fakeTaskRepo) ListCompleted(_ context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	return r.list(func(t *entities.Task) bool {
		return t.UserID == userID && t.Status == entities.TaskStatusDone && !t.IsRepeatable && t.CompletedAt != nil
	}), nil
}

func (r *fakeTaskRepo) DeleteCompletedBefore(_ context.Context, cutoff entities.Date) (int64, error) {
	var deleted int64
	for id, t := range r.tasks {
		if t.Status == entities.TaskStatusDone && t.DateScheduled.Before(cutoff) {
			delete(r.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeTaskRepo) MarkPendingReview(_ context.Context, date entities.Date) (int64, error) {
	var moved int64
	for _, t := range r.tasks {
		if t.Status == entities.TaskStatusActive && !t.IsRepeatable && t.DateScheduled.Equal(date) {
			t.Status = entities.TaskStatusPendingReview
			moved++
		}
	}
	return moved, nil
}

type fakeCompletionRepo struct {
	completions map[string]*entities.TaskCompletion
	nextID      int64
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{completions: map[string]*entities.TaskCompletion{}, nextID: 1}
}

func completionKey(taskID int64, date entities.Date) string {
	return fmt.Sprintf("%d_%s", taskID, date)
}

func (r *fakeCompletionRepo) Create(_ context.Context, completion *entities.TaskCompletion) error {
	key := completionKey(completion.TaskID, completion.Date)
	if _, exists := r.completions[key]; exists {
		return fmt.Errorf("completion already exists for task %d on %s", completion.TaskID, completion.Date)
	}
	completion.ID = r.nextID
	r.nextID++
	clone := *completion
	r.completions[key] = &clone
	return nil
}

func (r *fakeCompletionRepo) Get(_ context.Context, userID uuid.UUID, taskID int64, date entities.Date) (*entities.TaskCompletion, error) {
	completion, ok := r.completions[completionKey(taskID, date)]
	if !ok || completion.UserID != userID {
		return nil, entities.ErrCompletionNotFound
	}
	clone := *completion
	return &clone, nil
}

func (r *fakeCompletionRepo) Delete(_ context.Context, userID uuid.UUID, taskID int64, date entities.Date) error {
	key := completionKey(taskID, date)
	completion, ok := r.completions[key]
	if !ok || completion.UserID != userID {
		return entities.ErrCompletionNotFound
	}
	delete(r.completions, key)
	return nil
}

func (r *fakeCompletionRepo) DeleteAllForTask(_ context.Context, taskID int64) error {
	for key, completion := range r.completions {
		if completion.TaskID == taskID {
			delete(r.completions, key)
		}
	}
	return nil
}

func (r *fakeCompletionRepo) MapForDate(_ context.Context, userID uuid.UUID, date entities.Date) (map[int64]entities.TaskStatus, error) {
	statuses := map[int64]entities.TaskStatus{}
	for _, completion := range r.completions {
		if completion.UserID == userID && completion.Date.Equal(date) {
			statuses[completion.TaskID] = completion.Status
		}
	}
	return statuses, nil
}

func (r *fakeCompletionRepo) ListDoneForTask(_ context.Context, taskID int64) ([]*entities.TaskCompletion, error) {
	var out []*entities.TaskCompletion
	for _, completion := range r.completions {
		if completion.TaskID == taskID && completion.Status == entities.TaskStatusDone {
			clone := *completion
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeCompletionRepo) ListDoneInRange(_ context.Context, userID uuid.UUID, start, end entities.Date) ([]*entities.TaskCompletion, error) {
	var out []*entities.TaskCompletion
	for _, completion := range r.completions {
		if completion.UserID == userID && completion.Status == entities.TaskStatusDone &&
			!completion.Date.Before(start) && !completion.Date.After(end) {
			clone := *completion
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type fakeConfigRepo struct {
	configs map[string]*entities.DailyConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: map[string]*entities.DailyConfig{}}
}

func configKey(userID uuid.UUID, date entities.Date) string {
	return userID.String() + "_" + date.String()
}

func (r *fakeConfigRepo) Get(_ context.Context, userID uuid.UUID, date entities.Date) (*entities.DailyConfig, error) {
	config, ok := r.configs[configKey(userID, date)]
	if !ok {
		return nil, entities.ErrConfigNotFound
	}
	clone := *config
	return &clone, nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, config *entities.DailyConfig) error {
	clone := *config
	r.configs[configKey(config.UserID, config.Date)] = &clone
	return nil
}

func (r *fakeConfigRepo) MapForRange(_ context.Context, userID uuid.UUID, start, end entities.Date) (map[string]float64, error) {
	out := map[string]float64{}
	for _, config := range r.configs {
		if config.UserID == userID && !config.Date.Before(start) && !config.Date.After(end) {
			out[config.Date.String()] = config.AvailableHours
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entities.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByLogin(ctx context.Context, login string) (*entities.User, error) {
	if user, err := r.GetByEmail(ctx, login); err == nil {
		return user, nil
	}
	return r.GetByUsername(ctx, login)
}

func (r *fakeUserRepo) Update(_ context.Context, user *entities.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdatePhoto(_ context.Context, id uuid.UUID, photo []byte, mimetype *string) error {
	user, ok := r.users[id]
	if !ok {
		return entities.ErrUserNotFound
	}
	user.ProfilePhoto = photo
	user.ProfilePhotoMimetype = mimetype
	return nil
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	for _, user := range r.users {
		if user.Email == email && (excludeID == nil || user.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return entities.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeAuthRepo struct {
	tokens       map[string]*ports.RefreshToken
	nextID       int64
	cleanupCalls int
}

func (r *fakeAuthRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	if r.tokens == nil {
		r.tokens = map[string]*ports.RefreshToken{}
	}
	r.nextID++
	r.tokens[tokenHash] = &ports.RefreshToken{
		ID:        r.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (r *fakeAuthRepo) GetRefreshToken(_ context.Context, tokenHash string) (*ports.RefreshToken, error) {
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh token not found")
	}
	clone := *token
	return &clone, nil
}

func (r *fakeAuthRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if token, ok := r.tokens[tokenHash]; ok && token.RevokedAt == nil {
		now := time.Now().UTC()
		token.RevokedAt = &now
	}
	return nil
}

func (r *fakeAuthRepo) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeAuthRepo) CleanupExpiredTokens(context.Context) error {
	r.cleanupCalls++
	for hash, token := range r.tokens {
		if token.IsExpired() {
			delete(r.tokens, hash)
		}
	}
	return nil
}
