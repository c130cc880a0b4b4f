package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/middleware"
	"github.com/tankas-app/tankas-api/internal/models"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/response"
)

type issueService interface {
	Create(ctx context.Context, reporter string, req dto.CreateIssueRequest, picture *dto.Upload) (*dto.IssueResponse, error)
	List(ctx context.Context, filter dto.IssueFilter) ([]dto.IssueResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.IssueResponse, bool, error)
	Update(ctx context.Context, id, actor string, req dto.UpdateIssueRequest) (*dto.IssueResponse, error)
	AddComment(ctx context.Context, id, actor string, req dto.CommentRequest) (*dto.IssueResponse, error)
}

type resolutionService interface {
	Resolve(ctx context.Context, issueID, resolver string, proof dto.Upload) (*dto.IssueResponse, error)
}

// IssueHandler exposes issue reporting and resolution endpoints.
type IssueHandler struct {
	issues      issueService
	resolutions resolutionService
	maxUpload   int64
}

// NewIssueHandler builds a new handler.
func NewIssueHandler(issues issueService, resolutions resolutionService, maxUpload int64) *IssueHandler {
	return &IssueHandler{issues: issues, resolutions: resolutions, maxUpload: maxUpload}
}

// List godoc
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param status query string false "open, in_progress or resolved"
// @Param limit query int false "Page size (1-1000, default 100)"
// @Param skip query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	var filter dto.IssueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.issues.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Report an issue
// @Description Coordinates may be omitted when the picture carries GPS metadata.
// @Tags Issues
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param latitude formData number false "Latitude"
// @Param longitude formData number false "Longitude"
// @Param priority formData string false "low, medium or high"
// @Param difficulty formData string false "easy, medium or hard"
// @Param picture formData file false "Photo of the issue"
// @Success 201 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateIssueRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid issue payload"))
		return
	}
	picture, err := readUpload(c, "picture", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	issue, err := h.issues.Create(c.Request.Context(), username, req, picture)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// Get godoc
// @Summary Get an issue
// @Tags Issues
// @Produce json
// @Param issue_id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /issues/{issue_id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, hit, err := h.issues.Get(c.Request.Context(), c.Param("issue_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, issue, nil, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update an issue
// @Description Only the reporter may edit title, description, priority and difficulty.
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param payload body dto.UpdateIssueRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /issues/{issue_id} [put]
func (h *IssueHandler) Update(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid issue update"))
		return
	}
	issue, err := h.issues.Update(c.Request.Context(), c.Param("issue_id"), username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// AddComment godoc
// @Summary Comment on an issue
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param payload body dto.CommentRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Router /issues/{issue_id}/comments [post]
func (h *IssueHandler) AddComment(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment"))
		return
	}
	issue, err := h.issues.AddComment(c.Request.Context(), c.Param("issue_id"), username, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Resolve godoc
// @Summary Resolve an issue with a geotagged photo
// @Description The photo must carry GPS metadata within 100 meters of the issue.
// @Tags Issues
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param issue_id path string true "Issue ID"
// @Param picture formData file true "Resolution photo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /issues/{issue_id}/resolve [post]
func (h *IssueHandler) Resolve(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	picture, err := readUpload(c, "picture", h.maxUpload)
	if err != nil {
		response.Error(c, err)
		return
	}
	var proof dto.Upload
	if picture != nil {
		proof = *picture
	}
	issue, err := h.resolutions.Resolve(c.Request.Context(), c.Param("issue_id"), username, proof)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}
