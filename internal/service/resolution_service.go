package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/models"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

// DefaultMaxVerificationDistance is the farthest, in meters, a resolution photo may be taken from the issue.
const DefaultMaxVerificationDistance = 100.0

const resolutionFolder = "resolutions"

// ResolutionConfig tunes GPS verification.
type ResolutionConfig struct {
	MaxDistanceMeters float64
}

// ResolutionService resolves issues against GPS-tagged photographic proof.
type ResolutionService struct {
	issues     issueRepository
	users      userRepository
	blobs      blobStore
	gps        geo.GPSExtractor
	points     pointsAwarder
	pledges    pledgeDistributor
	reconciler distributionReconciler
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ResolutionConfig
	now        func() time.Time
}

// NewResolutionService constructs a ResolutionService.
func NewResolutionService(
	issues issueRepository,
	users userRepository,
	blobs blobStore,
	gps geo.GPSExtractor,
	points pointsAwarder,
	pledges pledgeDistributor,
	reconciler distributionReconciler,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ResolutionConfig,
) *ResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDistanceMeters <= 0 {
		cfg.MaxDistanceMeters = DefaultMaxVerificationDistance
	}
	if gps == nil {
		gps = geo.NewEXIFExtractor()
	}
	return &ResolutionService{
		issues:     issues,
		users:      users,
		blobs:      blobs,
		gps:        gps,
		points:     points,
		pledges:    pledges,
		reconciler: reconciler,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Resolve verifies that the proof photo was taken at the issue and, if so,
// marks the issue resolved, credits the resolver and distributes pledges.
// Nothing is written until every check has passed.
func (s *ResolutionService) Resolve(ctx context.Context, issueID, resolver string, proof dto.Upload) (*dto.IssueResponse, error) {
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, s.reject(outcomeFor(err), err)
	}
	if issue.Status == models.IssueStatusResolved {
		return nil, s.reject(OutcomeConflict, appErrors.Clone(appErrors.ErrConflict, "issue already resolved"))
	}
	if _, err := loadUser(ctx, s.users, resolver); err != nil {
		return nil, s.reject(outcomeFor(err), err)
	}

	if proof.Empty() || !strings.HasPrefix(mimetype.Detect(proof.Data).String(), "image/") {
		return nil, s.reject(OutcomeInvalidPicture, appErrors.Clone(appErrors.ErrValidation, "resolution picture required"))
	}

	taken, ok := s.gps.Extract(proof.Data)
	if !ok {
		return nil, s.reject(OutcomeNoGPS, appErrors.Clone(appErrors.ErrValidation, "could not extract GPS from the resolution picture, enable location services and retake it"))
	}

	issueLat, issueLon, err := geo.Decode(issue.Location)
	if err != nil {
		return nil, s.reject(OutcomeError, internalError(err, "issue location is malformed"))
	}

	distance := geo.DistanceMeters(issueLat, issueLon, taken.Latitude, taken.Longitude)
	if distance > s.cfg.MaxDistanceMeters {
		msg := fmt.Sprintf("resolution picture was taken %.0fm from the issue, it must be within %.0fm", math.Round(distance), s.cfg.MaxDistanceMeters)
		return nil, s.reject(OutcomeTooFar, appErrors.Clone(appErrors.ErrValidation, msg))
	}

	pictureURL, err := s.blobs.Upload(ctx, proof.Data, proofFilename(proof), resolutionFolder)
	if err != nil {
		return nil, s.reject(OutcomeError, err)
	}

	resolvedAt := s.now()
	update := models.ResolutionUpdate{
		ResolvedBy:                 resolver,
		ResolvedAt:                 resolvedAt,
		PictureURL:                 pictureURL,
		Location:                   geo.EncodeCoordinate(taken),
		VerificationDistanceMeters: math.Round(distance*100) / 100,
	}
	won, err := s.issues.MarkResolved(ctx, issue.ID, update)
	if err != nil || !won {
		if delErr := s.blobs.Delete(ctx, pictureURL); delErr != nil {
			s.logger.Warn("orphaned resolution picture", zap.String("url", pictureURL), zap.Error(delErr))
		}
		if err != nil {
			return nil, s.reject(OutcomeError, internalError(err, "failed to resolve issue"))
		}
		return nil, s.reject(OutcomeConflict, appErrors.Clone(appErrors.ErrConflict, "issue already resolved"))
	}
	s.metrics.ObserveResolution(OutcomeResolved, distance)

	award := models.PointsAward{
		Username:       resolver,
		Reason:         models.ReasonIssueResolved,
		IssueID:        issueID,
		Points:         issue.PointsAssigned,
		TasksCompleted: 1,
		AreasCleaned:   1,
	}
	if err := s.points.Award(ctx, award); err != nil {
		s.logger.Error("resolver award failed", zap.String("issue_id", issueID), zap.String("resolver", resolver), zap.Error(err))
	}

	s.distribute(ctx, issue, resolver)
	_ = s.cache.Delete(ctx, issueCacheKey(issueID))

	resolved, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}
	resp := toIssueResponse(resolved)
	return &resp, nil
}

func (s *ResolutionService) distribute(ctx context.Context, issue *models.Issue, resolver string) {
	issueID := issue.ID.Hex()
	summary, err := s.pledges.Distribute(ctx, issueID, resolver)
	if err == nil {
		if clearErr := s.issues.ClearDistributionPending(ctx, issue.ID); clearErr != nil {
			s.logger.Warn("clear distribution marker failed", zap.String("issue_id", issueID), zap.Error(clearErr))
		}
		s.logger.Info("pledges distributed",
			zap.String("issue_id", issueID),
			zap.String("resolver", resolver),
			zap.Float64("total_points", summary.TotalPoints),
			zap.Float64("total_money", summary.TotalMoney),
			zap.Int("pledge_count", summary.PledgeCount),
		)
		return
	}

	s.metrics.RecordDistributionFailure()
	s.logger.Error("pledge distribution failed, scheduling reconciliation",
		zap.String("issue_id", issueID),
		zap.String("resolver", resolver),
		zap.Int("pledges_distributed", summary.PledgeCount),
		zap.Error(err),
	)
	if s.reconciler == nil {
		return
	}
	if qErr := s.reconciler.Enqueue(issueID, resolver); qErr != nil {
		s.logger.Error("enqueue reconciliation failed", zap.String("issue_id", issueID), zap.Error(qErr))
	}
}

func (s *ResolutionService) reject(outcome string, err error) error {
	s.metrics.ObserveResolution(outcome, 0)
	return err
}

func outcomeFor(err error) string {
	if appErrors.Is(err, appErrors.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeError
}

// proofFilename names the upload after its sniffed content rather than the client supplied name.
func proofFilename(proof dto.Upload) string {
	return "proof" + mimetype.Detect(proof.Data).Extension()
}
