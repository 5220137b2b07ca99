package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/config"
	"github.com/heatmap-service/internal/delivery/http/handler"
	"github.com/heatmap-service/internal/delivery/http/middleware"
)

// Server - Fiber HTTP server.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	heatmapHandler   *handler.HeatmapHandler
	breakdownHandler *handler.BreakdownHandler
	propertyHandler  *handler.PropertyHandler
	adminHandler     *handler.AdminHandler
	statsHandler     *handler.StatsHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	heatmapHandler *handler.HeatmapHandler,
	breakdownHandler *handler.BreakdownHandler,
	propertyHandler *handler.PropertyHandler,
	adminHandler *handler.AdminHandler,
	statsHandler *handler.StatsHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName: "Heatmap Service",
		// Viewport requests can take tens of seconds on a cold cache.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:              app,
		config:           cfg,
		logger:           logger,
		heatmapHandler:   heatmapHandler,
		breakdownHandler: breakdownHandler,
		propertyHandler:  propertyHandler,
		adminHandler:     adminHandler,
		statsHandler:     statsHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api")

	api.Get("/health", s.statsHandler.Health)
	api.Get("/stats", s.statsHandler.GetStatistics)

	// Heatmap pipeline
	api.Post("/heatmap-tile", s.heatmapHandler.GetTile)
	api.Post("/heatmap-viewport", s.heatmapHandler.GetViewport)
	api.Post("/factor-breakdown", s.breakdownHandler.GetBreakdown)

	// Property pipeline
	api.Post("/property-viewport", s.propertyHandler.GetViewport)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminAuth(s.config.Admin.Secret))
	admin.Post("/prewarm", s.adminHandler.Prewarm)
}

// Start - blocking listen.
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler shapes errors escaping the handlers (routing errors,
// body limits) into the shared error envelope.
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": err.Error(),
			},
		})
	}
}
