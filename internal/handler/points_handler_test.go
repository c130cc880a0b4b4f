package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/models"
)

type pointsServiceMock struct {
	username string
	limit    int
}

func (m *pointsServiceMock) History(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error) {
	m.username = username
	m.limit = limit
	return []models.LedgerEntry{{ID: "l1", Username: username, Reason: string(models.ReasonIssueReported), Points: 10}}, nil
}

func TestPointsHandlerHistory(t *testing.T) {
	svc := &pointsServiceMock{}
	handler := NewPointsHandler(svc)

	c, w := newContext(http.MethodGet, "/users/me/points/history?limit=25", nil, "gina")
	handler.History(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gina", svc.username)
	assert.Equal(t, 25, svc.limit)
}

func TestPointsHandlerHistoryRejectsBadLimit(t *testing.T) {
	svc := &pointsServiceMock{}
	handler := NewPointsHandler(svc)

	c, w := newContext(http.MethodGet, "/users/me/points/history?limit=abc", nil, "gina")
	handler.History(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.username)
}
