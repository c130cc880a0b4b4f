package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tankas-app/tankas-api/internal/models"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/response"
)

type pointsService interface {
	History(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error)
}

// PointsHandler exposes the caller's points ledger.
type PointsHandler struct {
	service pointsService
}

// NewPointsHandler constructs the handler.
func NewPointsHandler(service pointsService) *PointsHandler {
	return &PointsHandler{service: service}
}

// History godoc
// @Summary Points history of the caller
// @Description Empty when the ledger is disabled.
// @Tags Points
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 100, max 500)"
// @Success 200 {object} response.Envelope
// @Router /users/me/points/history [get]
func (h *PointsHandler) History(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	entries, err := h.service.History(c.Request.Context(), username, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
