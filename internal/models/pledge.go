package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardType is the kind of value a pledge promises.
type RewardType string

const (
	RewardPoints RewardType = "points"
	RewardMoney  RewardType = "money"
	RewardItem   RewardType = "item"
)

// PledgeStatus is active until the issue is resolved, then distributed forever.
type PledgeStatus string

const (
	PledgeStatusActive      PledgeStatus = "active"
	PledgeStatusDistributed PledgeStatus = "distributed"
)

// PledgeBonusPoints is credited to a pledger for every pledge made.
const PledgeBonusPoints = 20

// PriorityEscalationPledges is the active pledge count that forces high priority.
const PriorityEscalationPledges = 3

// Pledge is a reward promised toward resolving an issue.
type Pledge struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	IssueID           primitive.ObjectID `bson:"issue_id"`
	PledgerUsername   string             `bson:"pledger_username"`
	RewardType        RewardType         `bson:"reward_type"`
	RewardAmount      *float64           `bson:"reward_amount,omitempty"`
	RewardDescription *string            `bson:"reward_description,omitempty"`
	Status            PledgeStatus       `bson:"status"`
	CreatedAt         time.Time          `bson:"created_at"`
	DistributedAt     *time.Time         `bson:"distributed_at,omitempty"`
	DistributedTo     *string            `bson:"distributed_to,omitempty"`
}

// DistributionSummary totals what a resolver received from one distribution run.
type DistributionSummary struct {
	TotalPoints float64 `json:"total_points"`
	TotalMoney  float64 `json:"total_money"`
	PledgeCount int     `json:"pledge_count"`
}
