package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/versionarr/versionarr/internal/config"
	"github.com/versionarr/versionarr/internal/engine"
	"github.com/versionarr/versionarr/internal/migration"
	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/scheduler"
	"github.com/versionarr/versionarr/internal/slots"
)

// Server handles HTTP requests for the Versionarr API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	logger    zerolog.Logger
	cfg       *config.Config
	scheduler *scheduler.Scheduler
	startTime time.Time

	qualityService   *quality.Service
	slotService      *slots.Service
	migrationService *migration.Service
}

// NewServer creates a new API server instance.
func NewServer(db *sql.DB, cfg *config.Config, sched *scheduler.Scheduler, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		logger:    logger,
		cfg:       cfg,
		scheduler: sched,
		startTime: time.Now(),
	}

	s.qualityService = quality.NewService(db, logger)
	s.slotService = slots.NewService(db, s.qualityService, logger)
	s.migrationService = migration.NewService(migration.NewStore(db), s.slotService, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// SlotService returns the slot service for task wiring.
func (s *Server) SlotService() *slots.Service {
	return s.slotService
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	qualityHandlers := quality.NewHandlers(s.qualityService)
	qualityHandlers.RegisterRoutes(api.Group("/qualityprofiles"))

	slotHandlers := slots.NewHandlers(s.slotService)
	slotGroup := api.Group("/slots")
	slotHandlers.RegisterRoutes(slotGroup)

	engineHandlers := engine.NewHandlers(s.slotService)
	engineHandlers.RegisterRoutes(slotGroup)

	migrationHandlers := migration.NewHandlers(s.migrationService)
	migrationHandlers.RegisterRoutes(api.Group("/migration"))

	tasks := api.Group("/tasks")
	tasks.GET("", s.listTasks)
	tasks.POST("/:id/run", s.runTask)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// EnsureDefaults creates default data like quality profiles.
func (s *Server) EnsureDefaults(ctx context.Context) error {
	return s.qualityService.EnsureDefaults(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var movieCount, seriesCount, assignmentCount int
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&movieCount)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series`).Scan(&seriesCount)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_slot_assignments`).Scan(&assignmentCount)

	return c.JSON(http.StatusOK, map[string]any{
		"version":         "0.1.0",
		"startTime":       s.startTime.Format(time.RFC3339),
		"movieCount":      movieCount,
		"seriesCount":     seriesCount,
		"assignmentCount": assignmentCount,
	})
}

func (s *Server) listTasks(c echo.Context) error {
	if s.scheduler == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.scheduler.ListTasks())
}

func (s *Server) runTask(c echo.Context) error {
	if s.scheduler == nil {
		return echo.NewHTTPError(http.StatusConflict, "scheduler not running")
	}
	if err := s.scheduler.RunNow(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "started"})
}
