package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tankas-app/tankas-api/internal/models"
)

// IssueRepository persists issues. Every mutation is a targeted partial update.
type IssueRepository struct {
	collection *mongo.Collection
}

// NewIssueRepository constructs an IssueRepository.
func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{collection: db.Collection(CollectionIssues)}
}

// Create inserts a new issue and assigns its ID.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Comments == nil {
		issue.Comments = []models.Comment{}
	}
	if _, err := r.collection.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// FindByID returns mongo.ErrNoDocuments for unknown or malformed ids.
func (r *IssueRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var issue models.Issue
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns a page of issues, newest first, plus the total match count.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(filter.Skip)).
		SetLimit(int64(filter.Limit))
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, 0, fmt.Errorf("decode issues: %w", err)
	}
	return issues, int(total), nil
}

// Update applies the reporter's field changes.
func (r *IssueRepository) Update(ctx context.Context, id primitive.ObjectID, update models.IssueUpdate, now time.Time) error {
	set := bson.M{"updated_at": now}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.Difficulty != nil {
		set["difficulty"] = *update.Difficulty
	}
	return r.updateExisting(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// AddComment appends a comment.
func (r *IssueRepository) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": comment.CreatedAt},
	}
	return r.updateExisting(ctx, bson.M{"_id": id}, update)
}

// MarkInProgress moves an open issue to in_progress. It reports whether the
// transition happened.
func (r *IssueRepository) MarkInProgress(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.IssueStatusOpen},
		bson.M{"$set": bson.M{"status": models.IssueStatusInProgress, "updated_at": now}},
	)
	if err != nil {
		return false, fmt.Errorf("mark issue in progress: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// MarkResolved writes every resolution field in one update guarded by
// status != resolved. It returns false when another resolution won the race.
func (r *IssueRepository) MarkResolved(ctx context.Context, id primitive.ObjectID, res models.ResolutionUpdate) (bool, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.IssueStatusResolved}}
	update := bson.M{"$set": bson.M{
		"status":                       models.IssueStatusResolved,
		"resolved_by":                  res.ResolvedBy,
		"resolved_at":                  res.ResolvedAt,
		"resolution_picture_url":       res.PictureURL,
		"resolution_location":          res.Location,
		"verification_distance_meters": res.VerificationDistanceMeters,
		"distribution_pending":         true,
		"updated_at":                   res.ResolvedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mark issue resolved: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// RaisePriority sets the priority unless the issue already has it.
func (r *IssueRepository) RaisePriority(ctx context.Context, id primitive.ObjectID, priority models.IssuePriority, now time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "priority": bson.M{"$ne": priority}},
		bson.M{"$set": bson.M{"priority": priority, "updated_at": now}},
	)
	if err != nil {
		return false, fmt.Errorf("raise issue priority: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// ClearDistributionPending removes the reconciliation marker.
func (r *IssueRepository) ClearDistributionPending(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"distribution_pending": ""}})
	if err != nil {
		return fmt.Errorf("clear distribution marker: %w", err)
	}
	return nil
}

// ListDistributionPending returns resolved issues whose pledges still await distribution.
func (r *IssueRepository) ListDistributionPending(ctx context.Context) ([]models.Issue, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"distribution_pending": true, "status": models.IssueStatusResolved})
	if err != nil {
		return nil, fmt.Errorf("list pending distributions: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode pending distributions: %w", err)
	}
	return issues, nil
}

func (r *IssueRepository) updateExisting(ctx context.Context, filter, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
