package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/utils"
	"github.com/heatmap-service/internal/pkg/validator"
	"github.com/heatmap-service/internal/usecase"
	"github.com/heatmap-service/internal/usecase/dto"
)

// HeatmapHandler serves single-tile and viewport heatmap requests.
type HeatmapHandler struct {
	tileUC     *usecase.HeatmapTileUseCase
	viewportUC *usecase.HeatmapViewportUseCase
	logger     *zap.Logger
}

func NewHeatmapHandler(tileUC *usecase.HeatmapTileUseCase, viewportUC *usecase.HeatmapViewportUseCase, logger *zap.Logger) *HeatmapHandler {
	return &HeatmapHandler{
		tileUC:     tileUC,
		viewportUC: viewportUC,
		logger:     logger,
	}
}

// GetTile godoc
// @Summary Compute one heatmap tile
// @Description Returns the location-quality grid for a single XYZ tile under the given factors and scoring parameters
// @Tags Heatmap
// @Accept json
// @Produce json
// @Param request body dto.HeatmapTileRequest true "Tile request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Failure 504 {object} utils.ErrorResponse
// @Router /api/heatmap-tile [post]
func (h *HeatmapHandler) GetTile(c *fiber.Ctx) error {
	var req dto.HeatmapTileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("body", err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("validation", err.Error()))
	}

	params, err := req.ScoringParams.ToDomain()
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidDistanceCurve.WithField("distanceCurve", req.ScoringParams.DistanceCurve))
	}
	if req.NormalizeToViewport != nil {
		params.NormalizeToViewport = *req.NormalizeToViewport
	}

	gridSize := 0.0
	if req.GridSize != nil {
		gridSize = *req.GridSize
	}

	start := time.Now()
	result, err := h.tileUC.GetTile(c.Context(), req.Tile.ToDomain(), dto.ConvertFactors(req.Factors), params, gridSize)
	if err != nil {
		h.logger.Error("Heatmap tile request failed",
			zap.Int("z", req.Tile.Z), zap.Int("x", req.Tile.X), zap.Int("y", req.Tile.Y),
			zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.TileResponseFromDomain(result), &utils.Meta{
		Total:    len(result.Points),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// GetViewport godoc
// @Summary Compute the heatmap for a viewport
// @Description Covers the viewport with fixed-zoom tiles, computes each in throttled batches and prefetches surrounding context tiles
// @Tags Heatmap
// @Accept json
// @Produce json
// @Param request body dto.HeatmapViewportRequest true "Viewport request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/heatmap-viewport [post]
func (h *HeatmapHandler) GetViewport(c *fiber.Ctx) error {
	var req dto.HeatmapViewportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("body", err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("validation", err.Error()))
	}

	params, err := req.ScoringParams.ToDomain()
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidDistanceCurve.WithField("distanceCurve", req.ScoringParams.DistanceCurve))
	}

	start := time.Now()
	resp, err := h.viewportUC.GetViewport(c.Context(), req.Bounds.ToDomain(), req.Zoom,
		dto.ConvertFactors(req.Factors), params, req.TileRadius)
	if err != nil {
		h.logger.Error("Heatmap viewport request failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total:    len(resp.Results),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}
