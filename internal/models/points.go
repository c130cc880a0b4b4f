package models

import "time"

// PointsReason explains why a user's counters changed.
type PointsReason string

const (
	ReasonIssueReported      PointsReason = "issue_reported"
	ReasonIssueResolved      PointsReason = "issue_resolved"
	ReasonPledgeMade         PointsReason = "pledge_made"
	ReasonPledgesDistributed PointsReason = "pledges_distributed"
	ReasonVolunteered        PointsReason = "volunteered"
)

// PointsAward is one atomic increment of a user's counters.
type PointsAward struct {
	Username       string
	Reason         PointsReason
	IssueID        string
	Points         int
	TasksCompleted int
	TasksReported  int
	AreasCleaned   int
}

// IsZero reports whether the award changes nothing.
func (a PointsAward) IsZero() bool {
	return a.Points == 0 && a.TasksCompleted == 0 && a.TasksReported == 0 && a.AreasCleaned == 0
}

// LedgerEntry is the persisted audit row for a PointsAward.
type LedgerEntry struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Reason         string    `db:"reason" json:"reason"`
	IssueID        *string   `db:"issue_id" json:"issue_id,omitempty"`
	Points         int       `db:"points" json:"points"`
	TasksCompleted int       `db:"tasks_completed" json:"tasks_completed"`
	TasksReported  int       `db:"tasks_reported" json:"tasks_reported"`
	AreasCleaned   int       `db:"areas_cleaned" json:"areas_cleaned"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
