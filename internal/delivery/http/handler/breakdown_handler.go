package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/utils"
	"github.com/heatmap-service/internal/pkg/validator"
	"github.com/heatmap-service/internal/usecase"
	"github.com/heatmap-service/internal/usecase/dto"
)

// BreakdownHandler serves per-factor score explanations for map popups.
type BreakdownHandler struct {
	breakdownUC *usecase.BreakdownUseCase
	logger      *zap.Logger
}

func NewBreakdownHandler(breakdownUC *usecase.BreakdownUseCase, logger *zap.Logger) *BreakdownHandler {
	return &BreakdownHandler{breakdownUC: breakdownUC, logger: logger}
}

// GetBreakdown godoc
// @Summary Explain the score at one point
// @Description Returns the aggregate score plus per-factor distances and contributions at a single location
// @Tags Heatmap
// @Accept json
// @Produce json
// @Param request body dto.FactorBreakdownRequest true "Breakdown request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/factor-breakdown [post]
func (h *BreakdownHandler) GetBreakdown(c *fiber.Ctx) error {
	var req dto.FactorBreakdownRequest
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

	breakdown, err := h.breakdownUC.GetBreakdown(c.Context(),
		domain.LatLng{Lat: req.Point.Lat, Lng: req.Point.Lng},
		dto.ConvertFactors(req.Factors), params)
	if err != nil {
		h.logger.Error("Factor breakdown request failed",
			zap.Float64("lat", req.Point.Lat), zap.Float64("lng", req.Point.Lng),
			zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.FactorBreakdownResponse{Breakdown: breakdown}, nil)
}
