package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/utils"
	"github.com/heatmap-service/internal/pkg/validator"
	"github.com/heatmap-service/internal/usecase"
	"github.com/heatmap-service/internal/usecase/dto"
)

// PropertyHandler serves tiled real-estate listings.
type PropertyHandler struct {
	propertyUC *usecase.PropertyTileUseCase
	logger     *zap.Logger
}

func NewPropertyHandler(propertyUC *usecase.PropertyTileUseCase, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{propertyUC: propertyUC, logger: logger}
}

// GetViewport godoc
// @Summary List properties in a viewport
// @Description Covers the viewport with tiles of listings from the requested sources, optionally enriched with a price-vs-quality analysis
// @Tags Property
// @Accept json
// @Produce json
// @Param request body dto.PropertyViewportRequest true "Property viewport request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/property-viewport [post]
func (h *PropertyHandler) GetViewport(c *fiber.Ctx) error {
	var req dto.PropertyViewportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("body", err.Error()))
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidInput.WithField("validation", err.Error()))
	}

	var params *domain.ScoringParams
	if req.ScoringParams != nil {
		p, err := req.ScoringParams.ToDomain()
		if err != nil {
			return utils.SendError(c, errors.ErrInvalidDistanceCurve.WithField("distanceCurve", req.ScoringParams.DistanceCurve))
		}
		params = &p
	}

	start := time.Now()
	resp, err := h.propertyUC.GetViewport(c.Context(), req.Bounds.ToDomain(),
		req.Filters.ToDomain(), req.Sources, req.TileRadius,
		dto.ConvertFactors(req.Factors), params)
	if err != nil {
		h.logger.Error("Property viewport request failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, &utils.Meta{
		Total:    len(resp.Results),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}
