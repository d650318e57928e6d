package http

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/triade/core/internal/application/services"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, response)
}

// Login handles user login by email or username
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Login failed", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warnw("Token refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	return c.JSON(http.StatusOK, response)
}

// Logout handles user logout
func (h *AuthHandler) Logout(c echo.Context) error {
	userID := getUserIDFromContext(c)

	if err := h.authService.Logout(c.Request().Context(), userID); err != nil {
		h.logger.Errorw("Logout failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Logout failed")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Logged out successfully"})
}

// UserHandler handles profile-related requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c echo.Context) error {
	userID := getUserIDFromContext(c)

	user, err := h.userService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// UpdateMe updates personal name and/or email
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    user,
	})
}

// ChangePassword verifies the current password and sets a new one
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.userService.ChangePassword(c.Request().Context(), userID, req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Password changed"})
}

// CheckUsername reports username availability
func (h *UserHandler) CheckUsername(c echo.Context) error {
	response, err := h.userService.CheckUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// CheckEmail reports email availability
func (h *UserHandler) CheckEmail(c echo.Context) error {
	response, err := h.userService.CheckEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// UploadPhoto accepts a profile photo as multipart form data or as a JSON
// body carrying a base64 data URI.
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	userID := getUserIDFromContext(c)
	ctx := c.Request().Context()

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == echo.MIMEApplicationJSON || contentType == echo.MIMEApplicationJSONCharsetUTF8 {
		var req ports.UploadPhotoRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
		}
		if err := h.userService.UploadPhotoBase64(ctx, userID, req.Photo); err != nil {
			return err
		}
	} else {
		file, err := c.FormFile("photo")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Photo is required")
		}

		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to read photo")
		}
		defer src.Close()

		// Read one byte past the cap so oversized files fail validation
		// instead of being silently truncated.
		photo, err := io.ReadAll(io.LimitReader(src, services.MaxPhotoBytes+1))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Failed to read photo")
		}

		if err := h.userService.UploadPhoto(ctx, userID, photo, file.Header.Get(echo.HeaderContentType)); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Photo updated"})
}

// GetMyPhoto streams the authenticated user's photo
func (h *UserHandler) GetMyPhoto(c echo.Context) error {
	userID := getUserIDFromContext(c)

	photo, mimetype, err := h.userService.GetPhoto(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, mimetype, photo)
}

// DeleteMyPhoto removes the stored photo
func (h *UserHandler) DeleteMyPhoto(c echo.Context) error {
	userID := getUserIDFromContext(c)

	if err := h.userService.DeletePhoto(c.Request().Context(), userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Photo removed"})
}

// GetUserPhoto streams another user's public photo by username
func (h *UserHandler) GetUserPhoto(c echo.Context) error {
	photo, mimetype, err := h.userService.GetPhotoByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, mimetype, photo)
}

// Utility functions and helper types

func getUserIDFromContext(c echo.Context) uuid.UUID {
	if user, ok := c.Get("user").(*ports.AuthenticatedUser); ok {
		return user.ID
	}
	return uuid.Nil
}

// Request/Response types
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
