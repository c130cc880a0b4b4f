package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tankas-app/tankas-api/internal/models"
)

// PledgeRepository persists pledges.
type PledgeRepository struct {
	collection *mongo.Collection
}

// NewPledgeRepository constructs a PledgeRepository.
func NewPledgeRepository(db *mongo.Database) *PledgeRepository {
	return &PledgeRepository{collection: db.Collection(CollectionPledges)}
}

// Create inserts a pledge and assigns its ID.
func (r *PledgeRepository) Create(ctx context.Context, pledge *models.Pledge) error {
	if pledge.ID.IsZero() {
		pledge.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, pledge); err != nil {
		return fmt.Errorf("insert pledge: %w", err)
	}
	return nil
}

// ListByIssue returns the issue's pledges newest first. A nil status lists all.
func (r *PledgeRepository) ListByIssue(ctx context.Context, issueID primitive.ObjectID, status *models.PledgeStatus) ([]models.Pledge, error) {
	filter := bson.M{"issue_id": issueID}
	if status != nil {
		filter["status"] = *status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list pledges: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	pledges := make([]models.Pledge, 0)
	if err := cursor.All(ctx, &pledges); err != nil {
		return nil, fmt.Errorf("decode pledges: %w", err)
	}
	return pledges, nil
}

// CountActive counts active pledges for the issue.
func (r *PledgeRepository) CountActive(ctx context.Context, issueID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"issue_id": issueID, "status": models.PledgeStatusActive})
	if err != nil {
		return 0, fmt.Errorf("count active pledges: %w", err)
	}
	return count, nil
}

// MarkDistributed transitions one active pledge to distributed. It returns
// false when the pledge was no longer active.
func (r *PledgeRepository) MarkDistributed(ctx context.Context, pledgeID primitive.ObjectID, resolver string, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": pledgeID, "status": models.PledgeStatusActive},
		bson.M{"$set": bson.M{
			"status":         models.PledgeStatusDistributed,
			"distributed_at": at,
			"distributed_to": resolver,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("mark pledge distributed: %w", err)
	}
	return res.MatchedCount > 0, nil
}
