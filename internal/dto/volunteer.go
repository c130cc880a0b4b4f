package dto

import "time"

// VolunteerRequest registers the caller as a volunteer.
type VolunteerRequest struct {
	Contribution *string `json:"contribution" validate:"omitempty,max=500"`
}

// VolunteerResponse is the public representation of a volunteer record.
type VolunteerResponse struct {
	ID            string    `json:"id"`
	IssueID       string    `json:"issue_id"`
	Username      string    `json:"username"`
	Status        string    `json:"status"`
	Contribution  *string   `json:"contribution,omitempty"`
	VolunteeredAt time.Time `json:"volunteered_at"`
}

// DiscussionRequest posts to the volunteer thread.
type DiscussionRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
}

// DiscussionResponse is one message of the volunteer thread.
type DiscussionResponse struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issue_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
