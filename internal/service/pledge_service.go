package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/models"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
	"github.com/tankas-app/tankas-api/pkg/export"
)

// PledgeService manages the pledge escrow of an issue.
type PledgeService struct {
	issues    issueRepository
	users     userRepository
	pledges   pledgeRepository
	points    pointsAwarder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPledgeService constructs a PledgeService.
func NewPledgeService(issues issueRepository, users userRepository, pledges pledgeRepository, points pointsAwarder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PledgeService{
		issues:    issues,
		users:     users,
		pledges:   pledges,
		points:    points,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records an active pledge, credits the pledger and escalates the
// issue priority once enough pledges are active.
func (s *PledgeService) Create(ctx context.Context, issueID, pledger string, req dto.CreatePledgeRequest) (*dto.PledgeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid pledge payload")
	}
	rewardType := models.RewardType(req.RewardType)
	switch rewardType {
	case models.RewardPoints, models.RewardMoney:
		if req.RewardAmount == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reward_amount is required for %s pledges", rewardType))
		}
		if *req.RewardAmount < 0 || math.IsNaN(*req.RewardAmount) || math.IsInf(*req.RewardAmount, 0) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reward_amount must be zero or greater")
		}
	case models.RewardItem:
		if req.RewardDescription == nil || strings.TrimSpace(*req.RewardDescription) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reward_description is required for item pledges")
		}
	}

	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status == models.IssueStatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot pledge to a resolved issue")
	}
	if _, err := loadUser(ctx, s.users, pledger); err != nil {
		return nil, err
	}

	pledge := &models.Pledge{
		IssueID:           issue.ID,
		PledgerUsername:   pledger,
		RewardType:        rewardType,
		RewardAmount:      req.RewardAmount,
		RewardDescription: req.RewardDescription,
		Status:            models.PledgeStatusActive,
		CreatedAt:         s.now(),
	}
	if err := s.pledges.Create(ctx, pledge); err != nil {
		return nil, internalError(err, "failed to create pledge")
	}

	award := models.PointsAward{
		Username: pledger,
		Reason:   models.ReasonPledgeMade,
		IssueID:  issueID,
		Points:   models.PledgeBonusPoints,
	}
	if err := s.points.Award(ctx, award); err != nil {
		s.logger.Error("pledge bonus award failed", zap.String("issue_id", issueID), zap.String("username", pledger), zap.Error(err))
	}

	s.escalatePriority(ctx, issue)
	_ = s.cache.Delete(ctx, issueCacheKey(issueID))

	resp := toPledgeResponse(pledge)
	return &resp, nil
}

func (s *PledgeService) escalatePriority(ctx context.Context, issue *models.Issue) {
	if issue.Priority == models.PriorityHigh {
		return
	}
	active, err := s.pledges.CountActive(ctx, issue.ID)
	if err != nil {
		s.logger.Warn("count active pledges failed", zap.String("issue_id", issue.ID.Hex()), zap.Error(err))
		return
	}
	if active < models.PriorityEscalationPledges {
		return
	}
	if _, err := s.issues.RaisePriority(ctx, issue.ID, models.PriorityHigh, s.now()); err != nil {
		s.logger.Warn("priority escalation failed", zap.String("issue_id", issue.ID.Hex()), zap.Error(err))
		return
	}
	s.logger.Info("issue priority escalated", zap.String("issue_id", issue.ID.Hex()), zap.Int64("active_pledges", active))
}

// ListActive returns the issue's active pledges newest first.
func (s *PledgeService) ListActive(ctx context.Context, issueID string) ([]dto.PledgeResponse, error) {
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	status := models.PledgeStatusActive
	pledges, err := s.pledges.ListByIssue(ctx, issue.ID, &status)
	if err != nil {
		return nil, internalError(err, "failed to list pledges")
	}
	result := make([]dto.PledgeResponse, 0, len(pledges))
	for i := range pledges {
		result = append(result, toPledgeResponse(&pledges[i]))
	}
	return result, nil
}

// Distribute hands every still-active pledge to the resolver. Each pledge is
// claimed with a conditional update, so concurrent or repeated calls never
// distribute a pledge twice. Points already claimed are credited even when a
// later claim fails; the unclaimed pledges stay active for a retry.
func (s *PledgeService) Distribute(ctx context.Context, issueID, resolver string) (models.DistributionSummary, error) {
	var summary models.DistributionSummary

	oid, err := parseIssueID(issueID)
	if err != nil {
		return summary, err
	}
	status := models.PledgeStatusActive
	pledges, err := s.pledges.ListByIssue(ctx, oid, &status)
	if err != nil {
		return summary, internalError(err, "failed to list active pledges")
	}

	at := s.now()
	var claimErr error
	for i := range pledges {
		pledge := &pledges[i]
		claimed, err := s.pledges.MarkDistributed(ctx, pledge.ID, resolver, at)
		if err != nil {
			claimErr = internalError(err, "failed to distribute pledge")
			break
		}
		if !claimed {
			continue
		}
		summary.PledgeCount++
		if pledge.RewardAmount == nil {
			continue
		}
		switch pledge.RewardType {
		case models.RewardPoints:
			summary.TotalPoints += *pledge.RewardAmount
		case models.RewardMoney:
			summary.TotalMoney += *pledge.RewardAmount
		}
	}
	s.metrics.RecordPledgesDistributed(summary.PledgeCount)

	if credited := int(math.Floor(summary.TotalPoints)); credited > 0 {
		award := models.PointsAward{
			Username: resolver,
			Reason:   models.ReasonPledgesDistributed,
			IssueID:  issueID,
			Points:   credited,
		}
		if err := s.points.Award(ctx, award); err != nil {
			s.logger.Error("pledge points credit failed",
				zap.String("issue_id", issueID),
				zap.String("resolver", resolver),
				zap.Int("points", credited),
				zap.Error(err),
			)
			if claimErr == nil {
				claimErr = err
			}
		}
	}

	return summary, claimErr
}

// Export renders every pledge of the issue, active and distributed.
func (s *PledgeService) Export(ctx context.Context, issueID, format string) (*dto.ExportFile, error) {
	exporter, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, validationError(err, "format must be csv or pdf")
	}
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	pledges, err := s.pledges.ListByIssue(ctx, issue.ID, nil)
	if err != nil {
		return nil, internalError(err, "failed to list pledges")
	}

	table := export.Table{
		Title:   "Pledges: " + issue.Title,
		Headers: []string{"ID", "Pledger", "Reward Type", "Amount", "Description", "Status", "Created At", "Distributed To"},
		Rows:    make([]map[string]string, 0, len(pledges)),
	}
	var active, distributed int
	for _, p := range pledges {
		if p.Status == models.PledgeStatusActive {
			active++
		} else {
			distributed++
		}
		row := map[string]string{
			"ID":          p.ID.Hex(),
			"Pledger":     p.PledgerUsername,
			"Reward Type": string(p.RewardType),
			"Status":      string(p.Status),
			"Created At":  p.CreatedAt.Format(time.RFC3339),
		}
		if p.RewardAmount != nil {
			row["Amount"] = strconv.FormatFloat(*p.RewardAmount, 'f', 2, 64)
		}
		if p.RewardDescription != nil {
			row["Description"] = *p.RewardDescription
		}
		if p.DistributedTo != nil {
			row["Distributed To"] = *p.DistributedTo
		}
		table.Rows = append(table.Rows, row)
	}
	table.Summary = []string{
		"Issue: " + issue.ID.Hex(),
		"Status: " + string(issue.Status),
		fmt.Sprintf("Active pledges: %d, distributed: %d", active, distributed),
	}

	content, err := exporter.Render(table)
	if err != nil {
		return nil, internalError(err, "failed to render pledge export")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("pledges-%s.%s", issue.ID.Hex(), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}
