package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankas-app/tankas-api/internal/dto"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/response"
)

type pledgeService interface {
	Create(ctx context.Context, issueID, pledger string, req dto.CreatePledgeRequest) (*dto.PledgeResponse, error)
	ListActive(ctx context.Context, issueID string) ([]dto.PledgeResponse, error)
	Export(ctx context.Context, issueID, format string) (*dto.ExportFile, error)
}

// PledgeHandler manages pledges attached to issues.
type PledgeHandler struct {
	service pledgeService
}

// NewPledgeHandler constructs the handler.
func NewPledgeHandler(service pledgeService) *PledgeHandler {
	return &PledgeHandler{service: service}
}

// Create godoc
// @Summary Pledge a reward toward an issue
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param payload body dto.CreatePledgeRequest true "Pledge"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{issue_id}/pledge [post]
func (h *PledgeHandler) Create(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreatePledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pledge payload"))
		return
	}
	pledge, err := h.service.Create(c.Request.Context(), c.Param("issue_id"), username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pledge, nil)
}

// ListActive godoc
// @Summary List active pledges of an issue
// @Tags Pledges
// @Produce json
// @Param issue_id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{issue_id}/pledges [get]
func (h *PledgeHandler) ListActive(c *gin.Context) {
	pledges, err := h.service.ListActive(c.Request.Context(), c.Param("issue_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pledges, nil)
}

// Export godoc
// @Summary Download the pledges of an issue
// @Tags Pledges
// @Produce text/csv
// @Produce application/pdf
// @Param issue_id path string true "Issue ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /issues/{issue_id}/pledges/export [get]
func (h *PledgeHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("issue_id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
