package service

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/models"
	"github.com/tankas-app/tankas-api/internal/points"
	"github.com/tankas-app/tankas-api/internal/repository"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

const (
	defaultIssueLimit = 100
	issuePictureDir   = "issues"
)

// IssueService covers reporting, browsing and editing issues.
type IssueService struct {
	issues    issueRepository
	users     userRepository
	pledges   pledgeRepository
	blobs     blobStore
	gps       geo.GPSExtractor
	points    pointsAwarder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewIssueService constructs an IssueService.
func NewIssueService(issues issueRepository, users userRepository, pledges pledgeRepository, blobs blobStore, gps geo.GPSExtractor, points pointsAwarder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *IssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if gps == nil {
		gps = geo.NewEXIFExtractor()
	}
	return &IssueService{
		issues:    issues,
		users:     users,
		pledges:   pledges,
		blobs:     blobs,
		gps:       gps,
		points:    points,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create reports a new issue. Explicit coordinates win; otherwise the
// picture's GPS metadata locates the issue.
func (s *IssueService) Create(ctx context.Context, reporter string, req dto.CreateIssueRequest, picture *dto.Upload) (*dto.IssueResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid issue payload")
	}
	if _, err := loadUser(ctx, s.users, reporter); err != nil {
		return nil, err
	}

	hasPicture := !picture.Empty()
	if hasPicture && !strings.HasPrefix(mimetype.Detect(picture.Data).String(), "image/") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "picture must be an image")
	}

	var location geo.Coordinate
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		location = geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	case hasPicture:
		coord, ok := s.gps.Extract(picture.Data)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "location required: provide latitude and longitude or a picture with GPS metadata")
		}
		location = coord
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "location required: provide latitude and longitude or a picture with GPS metadata")
	}
	if !geo.Validate(location.Latitude, location.Longitude) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "latitude must be within [-90, 90] and longitude within [-180, 180]")
	}

	priority := models.IssuePriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	difficulty := models.IssueDifficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	now := s.now()
	issue := &models.Issue{
		ReportedBy:     reporter,
		Title:          req.Title,
		Description:    req.Description,
		Location:       geo.EncodeCoordinate(location),
		Priority:       priority,
		Difficulty:     difficulty,
		Status:         models.IssueStatusOpen,
		PointsAssigned: points.For(string(difficulty), string(priority)),
		Comments:       []models.Comment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if hasPicture {
		url, err := s.blobs.Upload(ctx, picture.Data, "picture"+mimetype.Detect(picture.Data).Extension(), issuePictureDir)
		if err != nil {
			return nil, err
		}
		issue.PictureURL = &url
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		if issue.PictureURL != nil {
			if delErr := s.blobs.Delete(ctx, *issue.PictureURL); delErr != nil {
				s.logger.Warn("orphaned issue picture", zap.String("url", *issue.PictureURL), zap.Error(delErr))
			}
		}
		return nil, internalError(err, "failed to create issue")
	}

	award := models.PointsAward{
		Username:      reporter,
		Reason:        models.ReasonIssueReported,
		IssueID:       issue.ID.Hex(),
		TasksReported: 1,
	}
	if err := s.points.Award(ctx, award); err != nil {
		s.logger.Error("reporter counter update failed", zap.String("issue_id", issue.ID.Hex()), zap.String("username", reporter), zap.Error(err))
	}

	resp := toIssueResponse(issue)
	return &resp, nil
}

// List returns a page of issues, newest first.
func (s *IssueService) List(ctx context.Context, filter dto.IssueFilter) ([]dto.IssueResponse, *models.Pagination, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, nil, validationError(err, "invalid issue filter")
	}
	if filter.Limit == 0 {
		filter.Limit = defaultIssueLimit
	}

	query := models.IssueFilter{Limit: filter.Limit, Skip: filter.Skip}
	if filter.Status != "" {
		status := models.IssueStatus(filter.Status)
		query.Status = &status
	}

	issues, total, err := s.issues.List(ctx, query)
	if err != nil {
		return nil, nil, internalError(err, "failed to list issues")
	}
	result := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		result = append(result, toIssueResponse(&issues[i]))
	}
	return result, &models.Pagination{Limit: filter.Limit, Skip: filter.Skip, TotalCount: total}, nil
}

// Get returns one issue and whether it was served from cache.
func (s *IssueService) Get(ctx context.Context, id string) (*dto.IssueResponse, bool, error) {
	key := issueCacheKey(id)
	var cached dto.IssueResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	issue, err := loadIssue(ctx, s.issues, id)
	if err != nil {
		return nil, false, err
	}
	resp := toIssueResponse(issue)
	_ = s.cache.Set(ctx, key, resp, 0)
	return &resp, false, nil
}

// Update lets the reporter edit descriptive fields. Status is never editable
// here, so resolution always goes through GPS verification.
func (s *IssueService) Update(ctx context.Context, id, actor string, req dto.UpdateIssueRequest) (*dto.IssueResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid issue update")
	}
	issue, err := loadIssue(ctx, s.issues, id)
	if err != nil {
		return nil, err
	}
	if issue.ReportedBy != actor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the reporter can update this issue")
	}

	update := models.IssueUpdate{Title: req.Title, Description: req.Description}
	if req.Priority != nil {
		priority := models.IssuePriority(*req.Priority)
		if priority.Rank() < models.PriorityHigh.Rank() {
			active, err := s.pledges.CountActive(ctx, issue.ID)
			if err != nil {
				return nil, internalError(err, "failed to count pledges")
			}
			if active >= models.PriorityEscalationPledges {
				return nil, appErrors.Clone(appErrors.ErrConflict, "priority must stay high while 3 or more pledges are active")
			}
		}
		update.Priority = &priority
	}
	if req.Difficulty != nil {
		difficulty := models.IssueDifficulty(*req.Difficulty)
		update.Difficulty = &difficulty
	}

	if err := s.issues.Update(ctx, issue.ID, update, s.now()); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, internalError(err, "failed to update issue")
	}
	return s.reload(ctx, id)
}

// AddComment appends a public comment.
func (s *IssueService) AddComment(ctx context.Context, id, actor string, req dto.CommentRequest) (*dto.IssueResponse, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid comment")
	}
	if _, err := loadUser(ctx, s.users, actor); err != nil {
		return nil, err
	}
	oid, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{Username: actor, Comment: req.Comment, CreatedAt: s.now()}
	if err := s.issues.AddComment(ctx, oid, comment); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, internalError(err, "failed to add comment")
	}
	return s.reload(ctx, id)
}

func (s *IssueService) reload(ctx context.Context, id string) (*dto.IssueResponse, error) {
	_ = s.cache.Delete(ctx, issueCacheKey(id))
	issue, err := loadIssue(ctx, s.issues, id)
	if err != nil {
		return nil, err
	}
	resp := toIssueResponse(issue)
	return &resp, nil
}
