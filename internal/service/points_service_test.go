package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/models"
	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

func TestPointsServiceAward(t *testing.T) {
	users := newFakeUserRepo("alice")
	ledger := &fakeLedger{}
	svc := NewPointsService(users, ledger, NewMetricsService(), nil)

	err := svc.Award(context.Background(), models.PointsAward{
		Username:       "alice",
		Reason:         models.ReasonIssueResolved,
		IssueID:        "issue-1",
		Points:         300,
		TasksCompleted: 1,
		AreasCleaned:   1,
	})
	require.NoError(t, err)

	user := users.user("alice")
	assert.Equal(t, 300, user.Points)
	assert.Equal(t, 1, user.TasksCompleted)
	assert.Equal(t, 1, user.AreasCleaned)
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, "issue_resolved", ledger.entries[0].Reason)
	require.NotNil(t, ledger.entries[0].IssueID)
	assert.Equal(t, "issue-1", *ledger.entries[0].IssueID)
}

func TestPointsServiceAwardUnknownUser(t *testing.T) {
	svc := NewPointsService(newFakeUserRepo(), nil, nil, nil)
	err := svc.Award(context.Background(), models.PointsAward{Username: "ghost", Points: 5})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestPointsServiceLedgerFailureIsNotSurfaced(t *testing.T) {
	users := newFakeUserRepo("alice")
	svc := NewPointsService(users, &fakeLedger{insertErr: errBoom}, nil, nil)

	require.NoError(t, svc.Award(context.Background(), models.PointsAward{Username: "alice", Points: 20, Reason: models.ReasonPledgeMade}))
	assert.Equal(t, 20, users.user("alice").Points)
}

func TestPointsServiceZeroAwardSkipsStore(t *testing.T) {
	users := newFakeUserRepo("alice")
	svc := NewPointsService(users, nil, nil, nil)

	require.NoError(t, svc.Award(context.Background(), models.PointsAward{Username: "alice"}))
	assert.Empty(t, users.increments)
}

func TestPointsServiceHistory(t *testing.T) {
	users := newFakeUserRepo("alice")
	ledger := &fakeLedger{}
	svc := NewPointsService(users, ledger, nil, nil)
	require.NoError(t, svc.Award(context.Background(), models.PointsAward{Username: "alice", Points: 5, Reason: models.ReasonVolunteered}))

	entries, err := svc.History(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	disabled := NewPointsService(users, nil, nil, nil)
	entries, err = disabled.History(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
