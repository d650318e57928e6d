package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/triade/core/docs"
	httpHandlers "github.com/triade/core/internal/adapters/http"
	"github.com/triade/core/internal/adapters/repository"
	"github.com/triade/core/internal/application/services"
	"github.com/triade/core/internal/domain/entities"
	"github.com/triade/core/internal/infrastructure/backup"
	"github.com/triade/core/internal/infrastructure/config"
	"github.com/triade/core/internal/infrastructure/database"
	"github.com/triade/core/internal/infrastructure/logger"
	"github.com/triade/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	rollover *services.RolloverService
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	clock := ports.NewClock()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db.DB)
	configRepo := repository.NewConfigRepository(db.DB)
	authRepo := repository.NewAuthRepository(db.DB)

	// Initialize services
	authService := services.NewAuthService(userRepo, authRepo, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	scheduleService := services.NewScheduleService(taskRepo, completionRepo, configRepo, clock, appLogger)
	taskService := services.NewTaskService(taskRepo, completionRepo, configRepo, scheduleService, clock, appLogger)
	statsService := services.NewStatsService(taskRepo, completionRepo, clock, appLogger)
	configService := services.NewConfigService(configRepo, appLogger)
	rolloverService := services.NewRolloverService(taskRepo, authRepo, clock, cfg.Scheduler, appLogger)
	backupManager := backup.NewManager(db.Path(), cfg.Backup, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, scheduleService, clock, appLogger)
	statsHandler := httpHandlers.NewStatsHandler(statsService, appLogger)
	configHandler := httpHandlers.NewConfigHandler(configService, clock, appLogger)
	backupHandler := httpHandlers.NewBackupHandler(backupManager, appLogger)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		db:       db,
		rollover: rolloverService,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, userHandler, taskHandler, statsHandler, configHandler, backupHandler, authService)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			latencyMs := float64(values.Latency.Nanoseconds()) / 1000000

			if values.Error != nil {
				s.logger.Errorw("HTTP request failed",
					"method", values.Method,
					"uri", values.URI,
					"status", values.Status,
					"latency_ms", latencyMs,
					"remote_ip", values.RemoteIP,
					"user_agent", values.UserAgent,
					"error", values.Error.Error(),
				)
			} else {
				s.logger.LogHTTPRequest(values.Method, values.URI, values.UserAgent, values.RemoteIP, values.Status, latencyMs)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	userHandler *httpHandlers.UserHandler,
	taskHandler *httpHandlers.TaskHandler,
	statsHandler *httpHandlers.StatsHandler,
	configHandler *httpHandlers.ConfigHandler,
	backupHandler *httpHandlers.BackupHandler,
	authService *services.AuthService,
) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes; register, login and refresh are public, the rest of the
	// group carries the account endpoints of the authenticated user.
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)
	authGroup.POST("/logout", authHandler.Logout, s.authMiddleware(authService))
	authGroup.GET("/check-username/:username", userHandler.CheckUsername)
	authGroup.GET("/check-email/:email", userHandler.CheckEmail)
	authGroup.GET("/users/:username/photo", userHandler.GetUserPhoto)

	authGroup.GET("/me", userHandler.GetMe, s.authMiddleware(authService))
	authGroup.PUT("/me", userHandler.UpdateMe, s.authMiddleware(authService))
	authGroup.POST("/change-password", userHandler.ChangePassword, s.authMiddleware(authService))
	authGroup.POST("/me/photo", userHandler.UploadPhoto, s.authMiddleware(authService))
	authGroup.GET("/me/photo", userHandler.GetMyPhoto, s.authMiddleware(authService))
	authGroup.DELETE("/me/photo", userHandler.DeleteMyPhoto, s.authMiddleware(authService))

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", s.authMiddleware(authService))
	taskGroup.GET("/daily", taskHandler.Daily)
	taskGroup.POST("", taskHandler.Create)
	taskGroup.GET("/pending_review", taskHandler.PendingReview)
	taskGroup.GET("/delegated", taskHandler.Delegated)
	taskGroup.GET("/weekly", taskHandler.Weekly)
	taskGroup.GET("/history", statsHandler.History)
	taskGroup.POST("/cleanup", taskHandler.Cleanup)
	taskGroup.GET("/:id", taskHandler.Get)
	taskGroup.PUT("/:id", taskHandler.Update)
	taskGroup.DELETE("/:id", taskHandler.Delete)
	taskGroup.POST("/:id/toggle-date", taskHandler.ToggleDate)

	// Daily config routes (authenticated)
	configGroup := v1.Group("/config", s.authMiddleware(authService))
	configGroup.GET("/daily", configHandler.GetDaily)
	configGroup.POST("/daily", configHandler.SetDaily)

	// Stats routes (authenticated)
	statsGroup := v1.Group("/stats", s.authMiddleware(authService))
	statsGroup.GET("/dashboard", statsHandler.Dashboard)

	// Backup routes (authenticated)
	backupGroup := v1.Group("/backups", s.authMiddleware(authService))
	backupGroup.POST("", backupHandler.Create)
	backupGroup.GET("", backupHandler.List)
	backupGroup.POST("/:filename/restore", backupHandler.Restore)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Database health check
	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	// Check if server is ready to accept requests
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server and the nightly rollover scheduler
func (s *Server) Start(address string) error {
	if err := s.rollover.Start(); err != nil {
		return err
	}

	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	s.rollover.Stop()
	return s.echo.Shutdown(ctx)
}

// customErrorHandler maps domain errors to HTTP responses
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var (
			httpErr       *echo.HTTPError
			validationErr *entities.ValidationError
			conflictErr   *entities.ConflictError
			budgetErr     *entities.BudgetExceededError
			valErrs       validator.ValidationErrors
		)

		switch {
		case errors.As(err, &httpErr):
			code = httpErr.Code
			msg = httpErr.Message
			if httpErr.Internal != nil {
				err = fmt.Errorf("%v, %v", err, httpErr.Internal)
			}
		case errors.As(err, &validationErr):
			code = http.StatusBadRequest
			msg = map[string]string{"error": validationErr.Message, "field": validationErr.Field}
		case errors.As(err, &conflictErr):
			code = http.StatusConflict
			msg = map[string]string{"error": conflictErr.Message, "field": conflictErr.Field}
		case errors.As(err, &budgetErr):
			code = http.StatusBadRequest
			msg = map[string]interface{}{
				"error":             "daily time budget exceeded",
				"available_hours":   budgetErr.AvailableHours,
				"used_hours":        budgetErr.UsedHours,
				"attempting_to_add": budgetErr.AttemptingToAdd,
				"would_total":       budgetErr.WouldTotal,
			}
		case errors.As(err, &valErrs):
			code = http.StatusBadRequest
			msg = map[string]string{"error": "validation failed", "details": valErrs.Error()}
		case errors.Is(err, entities.ErrTaskNotFound),
			errors.Is(err, entities.ErrUserNotFound),
			errors.Is(err, entities.ErrConfigNotFound),
			errors.Is(err, entities.ErrCompletionNotFound),
			errors.Is(err, entities.ErrBackupNotFound),
			errors.Is(err, entities.ErrPhotoNotFound):
			code = http.StatusNotFound
			msg = map[string]string{"error": err.Error()}
		case errors.Is(err, entities.ErrInvalidCredentials), errors.Is(err, entities.ErrUnauthorized):
			code = http.StatusUnauthorized
			msg = map[string]string{"error": err.Error()}
		default:
			msg = map[string]string{"error": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
