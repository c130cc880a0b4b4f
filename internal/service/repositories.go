package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tankas-app/tankas-api/internal/models"
	"github.com/tankas-app/tankas-api/internal/repository"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

type issueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.IssueUpdate, now time.Time) error
	AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error
	MarkInProgress(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	MarkResolved(ctx context.Context, id primitive.ObjectID, res models.ResolutionUpdate) (bool, error)
	RaisePriority(ctx context.Context, id primitive.ObjectID, priority models.IssuePriority, now time.Time) (bool, error)
	ClearDistributionPending(ctx context.Context, id primitive.ObjectID) error
	ListDistributionPending(ctx context.Context) ([]models.Issue, error)
}

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Increment(ctx context.Context, award models.PointsAward) error
}

type pledgeRepository interface {
	Create(ctx context.Context, pledge *models.Pledge) error
	ListByIssue(ctx context.Context, issueID primitive.ObjectID, status *models.PledgeStatus) ([]models.Pledge, error)
	CountActive(ctx context.Context, issueID primitive.ObjectID) (int64, error)
	MarkDistributed(ctx context.Context, pledgeID primitive.ObjectID, resolver string, at time.Time) (bool, error)
}

type volunteerRepository interface {
	Create(ctx context.Context, v *models.Volunteer) error
	FindActive(ctx context.Context, issueID primitive.ObjectID, username string) (*models.Volunteer, error)
	ListActive(ctx context.Context, issueID primitive.ObjectID) ([]models.Volunteer, error)
	Withdraw(ctx context.Context, issueID primitive.ObjectID, username string, at time.Time) (bool, error)
	AddMessage(ctx context.Context, msg *models.DiscussionMessage) error
	ListMessages(ctx context.Context, issueID primitive.ObjectID) ([]models.DiscussionMessage, error)
}

type ledgerRepository interface {
	Insert(ctx context.Context, entry *models.LedgerEntry) error
	ListByUsername(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error)
}

type blobStore interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

type pointsAwarder interface {
	Award(ctx context.Context, award models.PointsAward) error
}

type pledgeDistributor interface {
	Distribute(ctx context.Context, issueID, resolver string) (models.DistributionSummary, error)
}

type distributionReconciler interface {
	Enqueue(issueID, resolver string) error
}

func issueCacheKey(id string) string {
	return "issue:" + id
}

func parseIssueID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	return oid, nil
}

func loadIssue(ctx context.Context, repo issueRepository, id string) (*models.Issue, error) {
	issue, err := repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return issue, nil
}

func loadUser(ctx context.Context, repo userRepository, username string) (*models.User, error) {
	user, err := repo.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
