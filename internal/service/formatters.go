package service

import (
	"github.com/tankas-app/tankas-api/internal/dto"
	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/models"
)

func toIssueResponse(issue *models.Issue) dto.IssueResponse {
	resp := dto.IssueResponse{
		ID:                         issue.ID.Hex(),
		ReportedBy:                 issue.ReportedBy,
		Title:                      issue.Title,
		Description:                issue.Description,
		PictureURL:                 issue.PictureURL,
		Priority:                   string(issue.Priority),
		Difficulty:                 string(issue.Difficulty),
		Status:                     string(issue.Status),
		PointsAssigned:             issue.PointsAssigned,
		Comments:                   make([]dto.CommentResponse, 0, len(issue.Comments)),
		ResolvedBy:                 issue.ResolvedBy,
		ResolvedAt:                 issue.ResolvedAt,
		ResolutionPictureURL:       issue.ResolutionPictureURL,
		VerificationDistanceMeters: issue.VerificationDistanceMeters,
		DistributionPending:        issue.DistributionPending,
		CreatedAt:                  issue.CreatedAt,
		UpdatedAt:                  issue.UpdatedAt,
	}
	if lat, lon, err := geo.Decode(issue.Location); err == nil {
		resp.Latitude, resp.Longitude = lat, lon
	}
	if issue.ResolutionLocation != nil {
		if lat, lon, err := geo.Decode(*issue.ResolutionLocation); err == nil {
			resp.ResolutionLatitude, resp.ResolutionLongitude = &lat, &lon
		}
	}
	for _, c := range issue.Comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{Username: c.Username, Comment: c.Comment, CreatedAt: c.CreatedAt})
	}
	return resp
}

func toPledgeResponse(p *models.Pledge) dto.PledgeResponse {
	return dto.PledgeResponse{
		ID:                p.ID.Hex(),
		IssueID:           p.IssueID.Hex(),
		PledgerUsername:   p.PledgerUsername,
		RewardType:        string(p.RewardType),
		RewardAmount:      p.RewardAmount,
		RewardDescription: p.RewardDescription,
		Status:            string(p.Status),
		CreatedAt:         p.CreatedAt,
		DistributedAt:     p.DistributedAt,
		DistributedTo:     p.DistributedTo,
	}
}

func toVolunteerResponse(v *models.Volunteer) dto.VolunteerResponse {
	return dto.VolunteerResponse{
		ID:            v.ID.Hex(),
		IssueID:       v.IssueID.Hex(),
		Username:      v.Username,
		Status:        string(v.Status),
		Contribution:  v.Contribution,
		VolunteeredAt: v.VolunteeredAt,
	}
}

func toDiscussionResponse(m *models.DiscussionMessage) dto.DiscussionResponse {
	return dto.DiscussionResponse{
		ID:        m.ID.Hex(),
		IssueID:   m.IssueID.Hex(),
		Username:  m.Username,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}
