package dto

import "time"

// CreatePledgeRequest promises a reward toward an issue.
type CreatePledgeRequest struct {
	RewardType        string   `json:"reward_type" validate:"required,oneof=points money item"`
	RewardAmount      *float64 `json:"reward_amount"`
	RewardDescription *string  `json:"reward_description" validate:"omitempty,max=500"`
}

// PledgeResponse is the public representation of a pledge.
type PledgeResponse struct {
	ID                string     `json:"id"`
	IssueID           string     `json:"issue_id"`
	PledgerUsername   string     `json:"pledger_username"`
	RewardType        string     `json:"reward_type"`
	RewardAmount      *float64   `json:"reward_amount,omitempty"`
	RewardDescription *string    `json:"reward_description,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	DistributedAt     *time.Time `json:"distributed_at,omitempty"`
	DistributedTo     *string    `json:"distributed_to,omitempty"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
