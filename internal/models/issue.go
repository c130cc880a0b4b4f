package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tankas-app/tankas-api/internal/geo"
)

// IssueStatus tracks the one-way lifecycle open -> in_progress -> resolved.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
)

// IssuePriority ranks urgency.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

// Rank orders priorities so that downgrades can be detected.
func (p IssuePriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// IssueDifficulty estimates effort.
type IssueDifficulty string

const (
	DifficultyEasy   IssueDifficulty = "easy"
	DifficultyMedium IssueDifficulty = "medium"
	DifficultyHard   IssueDifficulty = "hard"
)

// Comment is a public remark on an issue.
type Comment struct {
	Username  string    `bson:"username" json:"username"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Issue is a reported problem at a location. The resolution fields are either
// all unset or all set together by ResolutionUpdate.
type Issue struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ReportedBy     string             `bson:"reported_by"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	Location       geo.Point          `bson:"location"`
	PictureURL     *string            `bson:"picture_url,omitempty"`
	Priority       IssuePriority      `bson:"priority"`
	Difficulty     IssueDifficulty    `bson:"difficulty"`
	Status         IssueStatus        `bson:"status"`
	PointsAssigned int                `bson:"points_assigned"`
	Comments       []Comment          `bson:"comments"`

	ResolvedBy                 *string    `bson:"resolved_by,omitempty"`
	ResolvedAt                 *time.Time `bson:"resolved_at,omitempty"`
	ResolutionPictureURL       *string    `bson:"resolution_picture_url,omitempty"`
	ResolutionLocation         *geo.Point `bson:"resolution_location,omitempty"`
	VerificationDistanceMeters *float64   `bson:"verification_distance_meters,omitempty"`
	DistributionPending        bool       `bson:"distribution_pending,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// ResolutionUpdate carries the fields written atomically when an issue is resolved.
type ResolutionUpdate struct {
	ResolvedBy                 string
	ResolvedAt                 time.Time
	PictureURL                 string
	Location                   geo.Point
	VerificationDistanceMeters float64
}

// IssueUpdate lists optional field changes made by the reporter.
type IssueUpdate struct {
	Title       *string
	Description *string
	Priority    *IssuePriority
	Difficulty  *IssueDifficulty
}

// IssueFilter narrows issue listings.
type IssueFilter struct {
	Status *IssueStatus
	Limit  int
	Skip   int
}
