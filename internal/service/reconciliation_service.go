package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/pkg/jobs"
)

const distributionJobType = "pledge_distribution"

// ReconciliationConfig tunes the distribution retry queue.
type ReconciliationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

type distributionJob struct {
	IssueID  string
	Resolver string
}

// ReconciliationService retries pledge distributions that failed after an
// issue was resolved. The issue keeps distribution_pending set until a run
// succeeds, so Sweep can pick up work lost on restart.
type ReconciliationService struct {
	issues  issueRepository
	pledges pledgeDistributor
	cache   *CacheService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// NewReconciliationService constructs the service and its worker queue.
func NewReconciliationService(issues issueRepository, pledges pledgeDistributor, cache *CacheService, logger *zap.Logger, cfg ReconciliationConfig) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconciliationService{issues: issues, pledges: pledges, cache: cache, logger: logger}
	s.queue = jobs.NewQueue("pledge-reconciliation", s.handle, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Backoff:     true,
		OnExhausted: s.exhausted,
		Logger:      logger,
	})
	return s
}

// Start launches the workers.
func (s *ReconciliationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ReconciliationService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules a distribution retry for the issue.
func (s *ReconciliationService) Enqueue(issueID, resolver string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      issueID,
		Type:    distributionJobType,
		Payload: distributionJob{IssueID: issueID, Resolver: resolver},
	})
}

// Sweep enqueues every resolved issue still flagged for distribution and
// returns how many were scheduled.
func (s *ReconciliationService) Sweep(ctx context.Context) (int, error) {
	pending, err := s.issues.ListDistributionPending(ctx)
	if err != nil {
		return 0, err
	}
	scheduled := 0
	for _, issue := range pending {
		if issue.ResolvedBy == nil {
			s.logger.Warn("pending distribution without resolver", zap.String("issue_id", issue.ID.Hex()))
			continue
		}
		if err := s.Enqueue(issue.ID.Hex(), *issue.ResolvedBy); err != nil {
			return scheduled, err
		}
		scheduled++
	}
	if scheduled > 0 {
		s.logger.Info("pending distributions scheduled", zap.Int("count", scheduled))
	}
	return scheduled, nil
}

func (s *ReconciliationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(distributionJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	oid, err := parseIssueID(payload.IssueID)
	if err != nil {
		return err
	}

	summary, err := s.pledges.Distribute(ctx, payload.IssueID, payload.Resolver)
	if err != nil {
		return err
	}
	if err := s.issues.ClearDistributionPending(ctx, oid); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, issueCacheKey(payload.IssueID))

	s.logger.Info("pledge distribution reconciled",
		zap.String("issue_id", payload.IssueID),
		zap.String("resolver", payload.Resolver),
		zap.Int("attempt", job.Attempt),
		zap.Int("pledge_count", summary.PledgeCount),
		zap.Float64("total_points", summary.TotalPoints),
	)
	return nil
}

func (s *ReconciliationService) exhausted(job jobs.Job, err error) {
	s.logger.Error("pledge distribution abandoned until next sweep",
		zap.String("issue_id", job.ID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err),
	)
}
