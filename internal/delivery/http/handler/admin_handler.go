package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/heatmap-service/internal/pkg/errors"
	"github.com/heatmap-service/internal/pkg/utils"
	"github.com/heatmap-service/internal/pkg/validator"
	"github.com/heatmap-service/internal/usecase"
	"github.com/heatmap-service/internal/usecase/dto"
)

// AdminHandler serves operator endpoints. Routes are mounted behind the
// admin auth middleware.
type AdminHandler struct {
	prewarmUC *usecase.PrewarmUseCase
	logger    *zap.Logger
}

func NewAdminHandler(prewarmUC *usecase.PrewarmUseCase, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{prewarmUC: prewarmUC, logger: logger}
}

// Prewarm godoc
// @Summary Prewarm heatmap tiles
// @Description Computes and caches the tile cover of an area ahead of user traffic
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.PrewarmRequest true "Prewarm request"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 413 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /api/admin/prewarm [post]
func (h *AdminHandler) Prewarm(c *fiber.Ctx) error {
	var req dto.PrewarmRequest
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

	resp, err := h.prewarmUC.Prewarm(c.Context(), req.Bounds.ToDomain(),
		dto.ConvertFactors(req.Factors), params, req.TileRadius)
	if err != nil {
		h.logger.Error("Prewarm request failed", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, resp, nil)
}
