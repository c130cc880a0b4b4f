package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VolunteerStatus marks whether a volunteer is still committed to an issue.
type VolunteerStatus string

const (
	VolunteerStatusActive    VolunteerStatus = "active"
	VolunteerStatusWithdrawn VolunteerStatus = "withdrawn"
)

// VolunteerBonusPoints is credited when a user volunteers for an issue.
const VolunteerBonusPoints = 5

// Volunteer records a user's commitment to help resolve an issue.
type Volunteer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	IssueID       primitive.ObjectID `bson:"issue_id"`
	Username      string             `bson:"username"`
	Status        VolunteerStatus    `bson:"status"`
	Contribution  *string            `bson:"contribution,omitempty"`
	VolunteeredAt time.Time          `bson:"volunteered_at"`
	WithdrawnAt   *time.Time         `bson:"withdrawn_at,omitempty"`
}

// DiscussionMessage is a message in the volunteers-only thread of an issue.
type DiscussionMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	IssueID   primitive.ObjectID `bson:"issue_id"`
	Username  string             `bson:"username"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"created_at"`
}
