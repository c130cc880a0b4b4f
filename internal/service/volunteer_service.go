package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/models"
	"github.com/tankas-app/tankas-api/internal/repository"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

// VolunteerService manages volunteer sign-ups and their private discussion.
type VolunteerService struct {
	issues     issueRepository
	users      userRepository
	volunteers volunteerRepository
	points     pointsAwarder
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewVolunteerService constructs a VolunteerService.
func NewVolunteerService(issues issueRepository, users userRepository, volunteers volunteerRepository, points pointsAwarder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *VolunteerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VolunteerService{
		issues:     issues,
		users:      users,
		volunteers: volunteers,
		points:     points,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Volunteer signs the user up for an unresolved issue. The first volunteer
// moves an open issue to in_progress.
func (s *VolunteerService) Volunteer(ctx context.Context, issueID, username string, req dto.VolunteerRequest) (*dto.VolunteerResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid volunteer payload")
	}
	if _, err := loadUser(ctx, s.users, username); err != nil {
		return nil, err
	}
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status == models.IssueStatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot volunteer for a resolved issue")
	}

	now := s.now()
	volunteer := &models.Volunteer{
		IssueID:       issue.ID,
		Username:      username,
		Status:        models.VolunteerStatusActive,
		Contribution:  req.Contribution,
		VolunteeredAt: now,
	}
	if err := s.volunteers.Create(ctx, volunteer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already volunteering for this issue")
		}
		return nil, internalError(err, "failed to register volunteer")
	}

	award := models.PointsAward{
		Username: username,
		Reason:   models.ReasonVolunteered,
		IssueID:  issueID,
		Points:   models.VolunteerBonusPoints,
	}
	if err := s.points.Award(ctx, award); err != nil {
		s.logger.Error("volunteer bonus award failed", zap.String("issue_id", issueID), zap.String("username", username), zap.Error(err))
	}

	if issue.Status == models.IssueStatusOpen {
		if _, err := s.issues.MarkInProgress(ctx, issue.ID, now); err != nil {
			s.logger.Warn("issue status transition failed", zap.String("issue_id", issueID), zap.Error(err))
		}
	}
	_ = s.cache.Delete(ctx, issueCacheKey(issueID))

	resp := toVolunteerResponse(volunteer)
	return &resp, nil
}

// Withdraw ends the user's active commitment to the issue.
func (s *VolunteerService) Withdraw(ctx context.Context, issueID, username string) error {
	oid, err := parseIssueID(issueID)
	if err != nil {
		return err
	}
	withdrawn, err := s.volunteers.Withdraw(ctx, oid, username, s.now())
	if err != nil {
		return internalError(err, "failed to withdraw volunteer")
	}
	if !withdrawn {
		return appErrors.Clone(appErrors.ErrNotFound, "no active volunteer record for this issue")
	}
	return nil
}

// List returns the issue's active volunteers.
func (s *VolunteerService) List(ctx context.Context, issueID string) ([]dto.VolunteerResponse, error) {
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	items, err := s.volunteers.ListActive(ctx, issue.ID)
	if err != nil {
		return nil, internalError(err, "failed to list volunteers")
	}
	result := make([]dto.VolunteerResponse, 0, len(items))
	for i := range items {
		result = append(result, toVolunteerResponse(&items[i]))
	}
	return result, nil
}

// PostDiscussion adds a message to the volunteers-only thread.
func (s *VolunteerService) PostDiscussion(ctx context.Context, issueID, username string, req dto.DiscussionRequest) (*dto.DiscussionResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "message must be between 1 and 1000 characters")
	}
	issue, err := s.requireActiveVolunteer(ctx, issueID, username)
	if err != nil {
		return nil, err
	}

	msg := &models.DiscussionMessage{
		IssueID:   issue.ID,
		Username:  username,
		Message:   req.Message,
		CreatedAt: s.now(),
	}
	if err := s.volunteers.AddMessage(ctx, msg); err != nil {
		return nil, internalError(err, "failed to post message")
	}
	resp := toDiscussionResponse(msg)
	return &resp, nil
}

// ListDiscussion returns the thread oldest first.
func (s *VolunteerService) ListDiscussion(ctx context.Context, issueID, username string) ([]dto.DiscussionResponse, error) {
	issue, err := s.requireActiveVolunteer(ctx, issueID, username)
	if err != nil {
		return nil, err
	}
	items, err := s.volunteers.ListMessages(ctx, issue.ID)
	if err != nil {
		return nil, internalError(err, "failed to list messages")
	}
	result := make([]dto.DiscussionResponse, 0, len(items))
	for i := range items {
		result = append(result, toDiscussionResponse(&items[i]))
	}
	return result, nil
}

func (s *VolunteerService) requireActiveVolunteer(ctx context.Context, issueID, username string) (*models.Issue, error) {
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.volunteers.FindActive(ctx, issue.ID, username); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only active volunteers can access the discussion")
		}
		return nil, internalError(err, "failed to check volunteer status")
	}
	return issue, nil
}
