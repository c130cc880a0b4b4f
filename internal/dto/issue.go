package dto

import "time"

// Upload is an uploaded file read fully into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether no file content was received.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// CreateIssueRequest is the multipart form for reporting an issue. Coordinates
// are optional when the picture carries GPS metadata.
type CreateIssueRequest struct {
	Title       string   `form:"title" validate:"required,max=200"`
	Description string   `form:"description" validate:"required,max=5000"`
	Latitude    *float64 `form:"latitude"`
	Longitude   *float64 `form:"longitude"`
	Priority    string   `form:"priority" validate:"omitempty,oneof=low medium high"`
	Difficulty  string   `form:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// UpdateIssueRequest holds reporter editable fields.
type UpdateIssueRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1,max=5000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Difficulty  *string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// CommentRequest adds a public comment.
type CommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=1000"`
}

// IssueFilter captures list query parameters.
type IssueFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=open in_progress resolved"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=1000"`
	Skip   int    `form:"skip" validate:"omitempty,min=0"`
}

// CommentResponse is a comment as exposed by the API.
type CommentResponse struct {
	Username  string    `json:"username"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueResponse is the public representation of an issue.
type IssueResponse struct {
	ID                         string            `json:"id"`
	ReportedBy                 string            `json:"reported_by"`
	Title                      string            `json:"title"`
	Description                string            `json:"description"`
	Latitude                   float64           `json:"latitude"`
	Longitude                  float64           `json:"longitude"`
	PictureURL                 *string           `json:"picture_url,omitempty"`
	Priority                   string            `json:"priority"`
	Difficulty                 string            `json:"difficulty"`
	Status                     string            `json:"status"`
	PointsAssigned             int               `json:"points_assigned"`
	Comments                   []CommentResponse `json:"comments"`
	ResolvedBy                 *string           `json:"resolved_by,omitempty"`
	ResolvedAt                 *time.Time        `json:"resolved_at,omitempty"`
	ResolutionPictureURL       *string           `json:"resolution_picture_url,omitempty"`
	ResolutionLatitude         *float64          `json:"resolution_latitude,omitempty"`
	ResolutionLongitude        *float64          `json:"resolution_longitude,omitempty"`
	VerificationDistanceMeters *float64          `json:"verification_distance_meters,omitempty"`
	DistributionPending        bool              `json:"distribution_pending,omitempty"`
	CreatedAt                  time.Time         `json:"created_at"`
	UpdatedAt                  time.Time         `json:"updated_at"`
}
