package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// MaxPhotoBytes caps profile photo uploads at 2MB.
const MaxPhotoBytes = 2 * 1024 * 1024

var allowedPhotoMimetypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UserService handles profile and photo operations
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetProfile returns the account of the authenticated user
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile changes the personal name and/or email
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req ports.UpdateProfileRequest) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PersonalName != nil {
		personalName := strings.TrimSpace(*req.PersonalName)
		if personalName == "" || len(personalName) > 30 {
			return nil, &entities.ValidationError{Field: "personal_name", Message: "personal name must have 1-30 characters"}
		}
		user.PersonalName = personalName
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := entities.ValidateEmail(email); err != nil {
			return nil, err
		}

		taken, err := s.userRepo.EmailExists(ctx, email, &userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, &entities.ConflictError{Field: "email", Message: "email is already in use"}
		}
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUserID(userID.String()).Info("Profile updated")

	user.PasswordHash = ""
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, req ports.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return entities.ErrInvalidCredentials
	}

	if err := entities.ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	s.logger.WithUserID(userID.String()).Info("Password changed")
	return nil
}

// CheckUsername reports whether a username is valid and free
func (s *UserService) CheckUsername(ctx context.Context, username string) (*ports.AvailabilityResponse, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	if err := entities.ValidateUsername(username); err != nil {
		return &ports.AvailabilityResponse{Available: false, Error: err.Error()}, nil
	}

	taken, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	return &ports.AvailabilityResponse{Available: !taken}, nil
}

// CheckEmail reports whether an email is valid and free
func (s *UserService) CheckEmail(ctx context.Context, email string) (*ports.AvailabilityResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := entities.ValidateEmail(email); err != nil {
		return &ports.AvailabilityResponse{Available: false, Error: err.Error()}, nil
	}

	taken, err := s.userRepo.EmailExists(ctx, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	return &ports.AvailabilityResponse{Available: !taken}, nil
}

// UploadPhoto stores raw photo bytes uploaded via multipart form
func (s *UserService) UploadPhoto(ctx context.Context, userID uuid.UUID, photo []byte, mimetype string) error {
	if !allowedPhotoMimetypes[mimetype] {
		return &entities.ValidationError{Field: "photo", Message: "use JPEG, PNG, GIF or WebP"}
	}
	if len(photo) == 0 {
		return &entities.ValidationError{Field: "photo", Message: "photo is required"}
	}
	if len(photo) > MaxPhotoBytes {
		return &entities.ValidationError{Field: "photo", Message: "photo must be at most 2MB"}
	}

	if err := s.userRepo.UpdatePhoto(ctx, userID, photo, &mimetype); err != nil {
		return err
	}

	s.logger.WithUserID(userID.String()).Infow("Profile photo updated", "bytes", len(photo))
	return nil
}

// UploadPhotoBase64 stores a photo sent as a base64 data URI, e.g.
// "data:image/jpeg;base64,/9j/4AAQ...". A bare base64 payload defaults to
// JPEG.
func (s *UserService) UploadPhotoBase64(ctx context.Context, userID uuid.UUID, dataURI string) error {
	mimetype := "image/jpeg"
	encoded := dataURI

	if idx := strings.Index(dataURI, ","); idx >= 0 {
		header := dataURI[:idx]
		encoded = dataURI[idx+1:]
		if colon := strings.Index(header, ":"); colon >= 0 {
			if semi := strings.Index(header, ";"); semi > colon {
				mimetype = header[colon+1 : semi]
			}
		}
	}

	photo, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return &entities.ValidationError{Field: "photo", Message: "invalid base64 payload"}
	}

	return s.UploadPhoto(ctx, userID, photo, mimetype)
}

// GetPhoto returns the stored photo of a user
func (s *UserService) GetPhoto(ctx context.Context, userID uuid.UUID) ([]byte, string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	return photoOf(user)
}

// GetPhotoByUsername returns the public photo of a user looked up by name
func (s *UserService) GetPhotoByUsername(ctx context.Context, username string) ([]byte, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, "", err
	}

	return photoOf(user)
}

// DeletePhoto removes the stored profile photo
func (s *UserService) DeletePhoto(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.UpdatePhoto(ctx, userID, nil, nil); err != nil {
		return err
	}

	s.logger.WithUserID(userID.String()).Info("Profile photo removed")
	return nil
}

func photoOf(user *entities.User) ([]byte, string, error) {
	if !user.HasPhoto() {
		return nil, "", entities.ErrPhotoNotFound
	}

	mimetype := "image/jpeg"
	if user.ProfilePhotoMimetype != nil {
		mimetype = *user.ProfilePhotoMimetype
	}

	return user.ProfilePhoto, mimetype, nil
}
