package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/ports"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, uuid.UUID) {
	t.Helper()

	users := newFakeUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{
		Username:     "maria.s",
		PersonalName: "Maria",
		Email:        "maria@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, users.Create(context.Background(), user))

	return NewUserService(users, testLogger()), users, user.ID
}

func TestUpdateProfile(t *testing.T) {
	service, _, userID := newUserFixture(t)
	ctx := context.Background()

	updated, err := service.UpdateProfile(ctx, userID, ports.UpdateProfileRequest{
		PersonalName: strPtr("  Maria Silva  "),
		Email:        strPtr(" Maria.Silva@Example.com "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", updated.PersonalName)
	assert.Equal(t, "maria.silva@example.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)

	var validationErr *entities.ValidationError
	_, err = service.UpdateProfile(ctx, userID, ports.UpdateProfileRequest{PersonalName: strPtr("   ")})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.UpdateProfile(ctx, userID, ports.UpdateProfileRequest{Email: strPtr("not-an-email")})
	assert.Error(t, err)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	service, users, userID := newUserFixture(t)
	ctx := context.Background()

	other := &entities.User{Username: "joao.p", PersonalName: "Joao", Email: "joao@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, other))

	var conflictErr *entities.ConflictError
	_, err := service.UpdateProfile(ctx, userID, ports.UpdateProfileRequest{Email: strPtr("joao@example.com")})
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "email", conflictErr.Field)

	// Keeping the current email is not a conflict.
	_, err = service.UpdateProfile(ctx, userID, ports.UpdateProfileRequest{Email: strPtr("maria@example.com")})
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	service, users, userID := newUserFixture(t)
	ctx := context.Background()

	err := service.ChangePassword(ctx, userID, ports.ChangePasswordRequest{CurrentPassword: "wrong-pass", NewPassword: "newsecret1"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	err = service.ChangePassword(ctx, userID, ports.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "short"})
	var validationErr *entities.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	err = service.ChangePassword(ctx, userID, ports.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret1"})
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newsecret1")))
}

func TestCheckUsername(t *testing.T) {
	service, _, _ := newUserFixture(t)
	ctx := context.Background()

	taken, err := service.CheckUsername(ctx, "  MARIA.S ")
	require.NoError(t, err)
	assert.False(t, taken.Available)
	assert.Empty(t, taken.Error)

	free, err := service.CheckUsername(ctx, "someone.else")
	require.NoError(t, err)
	assert.True(t, free.Available)

	invalid, err := service.CheckUsername(ctx, "x")
	require.NoError(t, err)
	assert.False(t, invalid.Available)
	assert.NotEmpty(t, invalid.Error)
}

func TestCheckEmail(t *testing.T) {
	service, _, _ := newUserFixture(t)
	ctx := context.Background()

	taken, err := service.CheckEmail(ctx, "Maria@Example.com")
	require.NoError(t, err)
	assert.False(t, taken.Available)

	free, err := service.CheckEmail(ctx, "free@example.com")
	require.NoError(t, err)
	assert.True(t, free.Available)

	invalid, err := service.CheckEmail(ctx, "not-an-email")
	require.NoError(t, err)
	assert.False(t, invalid.Available)
	assert.NotEmpty(t, invalid.Error)
}

func TestUploadPhotoValidation(t *testing.T) {
	service, _, userID := newUserFixture(t)
	ctx := context.Background()

	var validationErr *entities.ValidationError

	err := service.UploadPhoto(ctx, userID, []byte("data"), "text/plain")
	assert.ErrorAs(t, err, &validationErr)

	err = service.UploadPhoto(ctx, userID, nil, "image/png")
	assert.ErrorAs(t, err, &validationErr)

	err = service.UploadPhoto(ctx, userID, bytes.Repeat([]byte{0xFF}, MaxPhotoBytes+1), "image/png")
	assert.ErrorAs(t, err, &validationErr)
}

func TestPhotoLifecycle(t *testing.T) {
	service, _, userID := newUserFixture(t)
	ctx := context.Background()

	_, _, err := service.GetPhoto(ctx, userID)
	assert.ErrorIs(t, err, entities.ErrPhotoNotFound)

	photo := []byte{0x89, 0x50, 0x4E, 0x47}
	require.NoError(t, service.UploadPhoto(ctx, userID, photo, "image/png"))

	stored, mimetype, err := service.GetPhoto(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, photo, stored)
	assert.Equal(t, "image/png", mimetype)

	byUsername, _, err := service.GetPhotoByUsername(ctx, "maria.s")
	require.NoError(t, err)
	assert.Equal(t, photo, byUsername)

	require.NoError(t, service.DeletePhoto(ctx, userID))
	_, _, err = service.GetPhoto(ctx, userID)
	assert.ErrorIs(t, err, entities.ErrPhotoNotFound)
}

func TestUploadPhotoBase64(t *testing.T) {
	service, _, userID := newUserFixture(t)
	ctx := context.Background()

	photo := []byte{0x47, 0x49, 0x46, 0x38}
	dataURI := "data:image/gif;base64," + base64.StdEncoding.EncodeToString(photo)
	require.NoError(t, service.UploadPhotoBase64(ctx, userID, dataURI))

	stored, mimetype, err := service.GetPhoto(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, photo, stored)
	assert.Equal(t, "image/gif", mimetype)

	// Bare payload defaults to JPEG.
	require.NoError(t, service.UploadPhotoBase64(ctx, userID, base64.StdEncoding.EncodeToString(photo)))
	_, mimetype, err = service.GetPhoto(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimetype)

	var validationErr *entities.ValidationError
	err = service.UploadPhotoBase64(ctx, userID, "data:image/png;base64,$$$not-base64$$$")
	assert.ErrorAs(t, err, &validationErr)
}
