package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/dto"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

type volunteerServiceMock struct {
	req            dto.VolunteerRequest
	withdrawErr    error
	discussionErr  error
	withdrawCalled bool
	postedBy       string
}

func (m *volunteerServiceMock) Volunteer(ctx context.Context, issueID, username string, req dto.VolunteerRequest) (*dto.VolunteerResponse, error) {
	m.req = req
	return &dto.VolunteerResponse{ID: "v1", IssueID: issueID, Username: username, Status: "active"}, nil
}

func (m *volunteerServiceMock) Withdraw(ctx context.Context, issueID, username string) error {
	m.withdrawCalled = true
	return m.withdrawErr
}

func (m *volunteerServiceMock) List(ctx context.Context, issueID string) ([]dto.VolunteerResponse, error) {
	return []dto.VolunteerResponse{{ID: "v1"}}, nil
}

func (m *volunteerServiceMock) PostDiscussion(ctx context.Context, issueID, username string, req dto.DiscussionRequest) (*dto.DiscussionResponse, error) {
	m.postedBy = username
	if m.discussionErr != nil {
		return nil, m.discussionErr
	}
	return &dto.DiscussionResponse{ID: "m1", IssueID: issueID, Username: username, Message: req.Message}, nil
}

func (m *volunteerServiceMock) ListDiscussion(ctx context.Context, issueID, username string) ([]dto.DiscussionResponse, error) {
	if m.discussionErr != nil {
		return nil, m.discussionErr
	}
	return []dto.DiscussionResponse{{ID: "m1"}}, nil
}

func TestVolunteerHandlerAcceptsEmptyBody(t *testing.T) {
	svc := &volunteerServiceMock{}
	handler := NewVolunteerHandler(svc)

	c, w := jsonContext(http.MethodPost, "/issues/abc/volunteer", "", "erin")
	c.Params = gin.Params{{Key: "issue_id", Value: "abc"}}
	handler.Volunteer(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.req.Contribution)
}

func TestVolunteerHandlerWithContribution(t *testing.T) {
	svc := &volunteerServiceMock{}
	handler := NewVolunteerHandler(svc)

	c, w := jsonContext(http.MethodPost, "/issues/abc/volunteer", `{"contribution":"bringing bags"}`, "erin")
	handler.Volunteer(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.req.Contribution)
	assert.Equal(t, "bringing bags", *svc.req.Contribution)
}

func TestVolunteerHandlerWithdraw(t *testing.T) {
	svc := &volunteerServiceMock{}
	handler := NewVolunteerHandler(svc)

	c, w := newContext(http.MethodDelete, "/issues/abc/volunteer", nil, "erin")
	handler.Withdraw(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.withdrawCalled)
}

func TestVolunteerHandlerWithdrawNotVolunteering(t *testing.T) {
	svc := &volunteerServiceMock{withdrawErr: appErrors.Clone(appErrors.ErrNotFound, "not volunteering for this issue")}
	handler := NewVolunteerHandler(svc)

	c, w := newContext(http.MethodDelete, "/issues/abc/volunteer", nil, "erin")
	handler.Withdraw(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVolunteerHandlerDiscussionForbidden(t *testing.T) {
	svc := &volunteerServiceMock{discussionErr: appErrors.Clone(appErrors.ErrForbidden, "only active volunteers can join the discussion")}
	handler := NewVolunteerHandler(svc)

	c, w := jsonContext(http.MethodPost, "/issues/abc/discussion", `{"message":"hi"}`, "frank")
	handler.PostDiscussion(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newContext(http.MethodGet, "/issues/abc/discussion", nil, "frank")
	handler.ListDiscussion(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVolunteerHandlerDiscussionRequiresUser(t *testing.T) {
	svc := &volunteerServiceMock{}
	handler := NewVolunteerHandler(svc)

	c, w := newContext(http.MethodGet, "/issues/abc/discussion", nil, "")
	handler.ListDiscussion(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVolunteerHandlerPostDiscussion(t *testing.T) {
	svc := &volunteerServiceMock{}
	handler := NewVolunteerHandler(svc)

	c, w := jsonContext(http.MethodPost, "/issues/abc/discussion", `{"message":"meet at 9"}`, "erin")
	handler.PostDiscussion(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "erin", svc.postedBy)
}
