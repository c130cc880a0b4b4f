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

// ErrDuplicate is returned when a unique index rejects an insert.
var ErrDuplicate = errors.New("duplicate record")

// VolunteerRepository persists volunteer records and their discussion thread.
type VolunteerRepository struct {
	volunteers  *mongo.Collection
	discussions *mongo.Collection
}

// NewVolunteerRepository constructs a VolunteerRepository.
func NewVolunteerRepository(db *mongo.Database) *VolunteerRepository {
	return &VolunteerRepository{
		volunteers:  db.Collection(CollectionVolunteers),
		discussions: db.Collection(CollectionDiscussions),
	}
}

// Create inserts an active volunteer record.
func (r *VolunteerRepository) Create(ctx context.Context, v *models.Volunteer) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if _, err := r.volunteers.InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert volunteer: %w", err)
	}
	return nil
}

// FindActive returns the user's active record for the issue.
func (r *VolunteerRepository) FindActive(ctx context.Context, issueID primitive.ObjectID, username string) (*models.Volunteer, error) {
	var v models.Volunteer
	err := r.volunteers.FindOne(ctx, bson.M{
		"issue_id": issueID,
		"username": username,
		"status":   models.VolunteerStatusActive,
	}).Decode(&v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListActive returns active volunteers in sign-up order.
func (r *VolunteerRepository) ListActive(ctx context.Context, issueID primitive.ObjectID) ([]models.Volunteer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "volunteered_at", Value: 1}})
	cursor, err := r.volunteers.Find(ctx, bson.M{"issue_id": issueID, "status": models.VolunteerStatusActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	items := make([]models.Volunteer, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode volunteers: %w", err)
	}
	return items, nil
}

// Withdraw marks the user's active record withdrawn. It returns false when none exists.
func (r *VolunteerRepository) Withdraw(ctx context.Context, issueID primitive.ObjectID, username string, at time.Time) (bool, error) {
	res, err := r.volunteers.UpdateOne(ctx,
		bson.M{"issue_id": issueID, "username": username, "status": models.VolunteerStatusActive},
		bson.M{"$set": bson.M{"status": models.VolunteerStatusWithdrawn, "withdrawn_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("withdraw volunteer: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// AddMessage inserts a discussion message.
func (r *VolunteerRepository) AddMessage(ctx context.Context, msg *models.DiscussionMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if _, err := r.discussions.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert discussion message: %w", err)
	}
	return nil
}

// ListMessages returns the discussion thread oldest first.
func (r *VolunteerRepository) ListMessages(ctx context.Context, issueID primitive.ObjectID) ([]models.DiscussionMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.discussions.Find(ctx, bson.M{"issue_id": issueID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list discussion: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	items := make([]models.DiscussionMessage, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode discussion: %w", err)
	}
	return items, nil
}
