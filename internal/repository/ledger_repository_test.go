package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankas-app/tankas-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestLedgerInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	issueID := "652f1c2e9b1e8a3d4c5b6a79"
	mock.ExpectExec("INSERT INTO points_ledger").
		WithArgs(sqlmock.AnyArg(), "alice", "issue_resolved", &issueID, 300, 1, 0, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.LedgerEntry{Username: "alice", Reason: "issue_resolved", IssueID: &issueID, Points: 300, TasksCompleted: 1, AreasCleaned: 1}
	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerListByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "reason", "issue_id", "points", "tasks_completed", "tasks_reported", "areas_cleaned", "created_at"}).
		AddRow("l-2", "alice", "pledge_made", "issue-1", 20, 0, 0, 0, now).
		AddRow("l-1", "alice", "issue_reported", nil, 0, 0, 1, 0, now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM points_ledger WHERE username = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("alice", 100).
		WillReturnRows(rows)

	entries, err := repo.ListByUsername(context.Background(), "alice", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 20, entries[0].Points)
	require.NotNil(t, entries[0].IssueID)
	assert.Nil(t, entries[1].IssueID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
