package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/internal/models"
	"github.com/tankas-app/tankas-api/internal/repository"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

// PointsService is the single path through which user counters change.
type PointsService struct {
	users   userRepository
	ledger  ledgerRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPointsService constructs a PointsService. A nil ledger disables the audit trail.
func NewPointsService(users userRepository, ledger ledgerRepository, metrics *MetricsService, logger *zap.Logger) *PointsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsService{users: users, ledger: ledger, metrics: metrics, logger: logger}
}

// Award applies the increments atomically, then appends a ledger row.
func (s *PointsService) Award(ctx context.Context, award models.PointsAward) error {
	if award.Username == "" {
		return appErrors.Clone(appErrors.ErrValidation, "award requires a username")
	}
	if award.IsZero() {
		return nil
	}

	if err := s.users.Increment(ctx, award); err != nil {
		if repository.IsNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return internalError(err, "failed to update user points")
	}
	s.metrics.RecordPointsAwarded(string(award.Reason), award.Points)

	if s.ledger == nil {
		return nil
	}
	entry := &models.LedgerEntry{
		Username:       award.Username,
		Reason:         string(award.Reason),
		Points:         award.Points,
		TasksCompleted: award.TasksCompleted,
		TasksReported:  award.TasksReported,
		AreasCleaned:   award.AreasCleaned,
	}
	if award.IssueID != "" {
		issueID := award.IssueID
		entry.IssueID = &issueID
	}
	if err := s.ledger.Insert(ctx, entry); err != nil {
		s.logger.Warn("points ledger write failed",
			zap.String("username", award.Username),
			zap.String("reason", string(award.Reason)),
			zap.Int("points", award.Points),
			zap.Error(err),
		)
	}
	return nil
}

// History returns the caller's most recent ledger rows. It is empty when the ledger is disabled.
func (s *PointsService) History(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error) {
	if s.ledger == nil {
		return []models.LedgerEntry{}, nil
	}
	entries, err := s.ledger.ListByUsername(ctx, username, limit)
	if err != nil {
		return nil, internalError(err, "failed to load points history")
	}
	return entries, nil
}
