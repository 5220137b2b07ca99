package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/pkg/utils"
	"github.com/heatmap-service/internal/usecase"
)

// StatsHandler serves cache statistics and the health probe.
type StatsHandler struct {
	statsUC *usecase.StatsUseCase
	logger  *zap.Logger
}

func NewStatsHandler(statsUC *usecase.StatsUseCase, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetStatistics godoc
// @Summary Get service statistics
// @Description Returns cache and POI store counters
// @Tags Statistics
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	stats := h.statsUC.GetStatistics(c.Context())
	return utils.SendSuccess(c, stats, nil)
}

// Health godoc
// @Summary Health check
// @Description Reports readiness of the service and the POI store
// @Tags Statistics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/health [get]
func (h *StatsHandler) Health(c *fiber.Ctx) error {
	if err := h.statsUC.Health(c.Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
			"time":   time.Now(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	})
}
