package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankas-app/tankas-api/internal/dto"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/response"
)

type volunteerService interface {
	Volunteer(ctx context.Context, issueID, username string, req dto.VolunteerRequest) (*dto.VolunteerResponse, error)
	Withdraw(ctx context.Context, issueID, username string) error
	List(ctx context.Context, issueID string) ([]dto.VolunteerResponse, error)
	PostDiscussion(ctx context.Context, issueID, username string, req dto.DiscussionRequest) (*dto.DiscussionResponse, error)
	ListDiscussion(ctx context.Context, issueID, username string) ([]dto.DiscussionResponse, error)
}

// VolunteerHandler exposes volunteer registration and the volunteer thread.
type VolunteerHandler struct {
	service volunteerService
}

// NewVolunteerHandler constructs the handler.
func NewVolunteerHandler(service volunteerService) *VolunteerHandler {
	return &VolunteerHandler{service: service}
}

// Volunteer godoc
// @Summary Volunteer for an issue
// @Tags Volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param payload body dto.VolunteerRequest false "Contribution note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{issue_id}/volunteer [post]
func (h *VolunteerHandler) Volunteer(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.VolunteerRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid volunteer payload"))
		return
	}
	record, err := h.service.Volunteer(c.Request.Context(), c.Param("issue_id"), username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Withdraw godoc
// @Summary Withdraw from volunteering
// @Tags Volunteers
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Success 204
// @Router /issues/{issue_id}/volunteer [delete]
func (h *VolunteerHandler) Withdraw(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Withdraw(c.Request.Context(), c.Param("issue_id"), username); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List volunteers of an issue
// @Tags Volunteers
// @Produce json
// @Param issue_id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{issue_id}/volunteers [get]
func (h *VolunteerHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("issue_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// PostDiscussion godoc
// @Summary Post to the volunteer thread
// @Tags Volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param payload body dto.DiscussionRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /issues/{issue_id}/discussion [post]
func (h *VolunteerHandler) PostDiscussion(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid discussion message"))
		return
	}
	msg, err := h.service.PostDiscussion(c.Request.Context(), c.Param("issue_id"), username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msg, nil)
}

// ListDiscussion godoc
// @Summary Read the volunteer thread
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{issue_id}/discussion [get]
func (h *VolunteerHandler) ListDiscussion(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.ListDiscussion(c.Request.Context(), c.Param("issue_id"), username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
