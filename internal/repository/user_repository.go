package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tankas-app/tankas-api/internal/models"
)

// UserRepository reads users and applies counter increments.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(CollectionUsers)}
}

// FindByUsername returns mongo.ErrNoDocuments when the user does not exist.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Increment applies the award as a single $inc relative to the stored values.
func (r *UserRepository) Increment(ctx context.Context, award models.PointsAward) error {
	inc := bson.M{}
	if award.Points != 0 {
		inc["points"] = award.Points
	}
	if award.TasksCompleted != 0 {
		inc["tasks_completed"] = award.TasksCompleted
	}
	if award.TasksReported != 0 {
		inc["tasks_reported"] = award.TasksReported
	}
	if award.AreasCleaned != 0 {
		inc["areas_cleaned"] = award.AreasCleaned
	}
	if len(inc) == 0 {
		return nil
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"username": award.Username}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("increment user counters: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
