package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered participant. Counters only ever grow through PointsAward.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email,omitempty" json:"email,omitempty"`
	FullName       string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Avatar         *string            `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Points         int                `bson:"points" json:"points"`
	TasksCompleted int                `bson:"tasks_completed" json:"tasks_completed"`
	TasksReported  int                `bson:"tasks_reported" json:"tasks_reported"`
	AreasCleaned   int                `bson:"areas_cleaned" json:"areas_cleaned"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Limit      int `json:"limit"`
	Skip       int `json:"skip"`
	TotalCount int `json:"total_count"`
}
