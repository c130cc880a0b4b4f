package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/models"
)

const issuesNS = "tankas.issues"

func issueDoc(id primitive.ObjectID, status models.IssueStatus) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "reported_by", Value: "alice"},
		{Key: "title", Value: "Overflowing bin"},
		{Key: "location", Value: bson.D{{Key: "type", Value: "Point"}, {Key: "coordinates", Value: bson.A{-122.4194, 37.7749}}}},
		{Key: "priority", Value: "medium"},
		{Key: "difficulty", Value: "hard"},
		{Key: "status", Value: string(status)},
		{Key: "points_assigned", Value: 450},
		{Key: "comments", Value: bson.A{}},
	}
}

func TestIssueRepositoryCreateAndFind(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("create assigns id", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		issue := &models.Issue{Title: "Litter", Location: geo.Encode(1, 2)}
		require.NoError(t, repo.Create(context.Background(), issue))
		assert.False(t, issue.ID.IsZero())
		assert.NotNil(t, issue.Comments)
	})

	mt.Run("find decodes location", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch, issueDoc(id, models.IssueStatusOpen)))

		issue, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(t, err)
		assert.Equal(t, id, issue.ID)
		assert.Equal(t, 450, issue.PointsAssigned)
		lat, lon, err := geo.Decode(issue.Location)
		require.NoError(t, err)
		assert.InDelta(t, 37.7749, lat, 1e-9)
		assert.InDelta(t, -122.4194, lon, 1e-9)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.True(t, IsNotFound(err))
	})

	mt.Run("find malformed id", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		_, err := repo.FindByID(context.Background(), "xyz")
		assert.True(t, IsNotFound(err))
	})
}

func TestIssueRepositoryList(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("returns page and total", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		first := mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch,
			issueDoc(primitive.NewObjectID(), models.IssueStatusOpen),
			issueDoc(primitive.NewObjectID(), models.IssueStatusOpen),
		)
		mt.AddMockResponses(count(issuesNS, 7), first)

		status := models.IssueStatusOpen
		issues, total, err := repo.List(context.Background(), models.IssueFilter{Status: &status, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, issues, 2)
		assert.Equal(t, 7, total)
	})
}

func TestIssueRepositoryMarkResolved(t *testing.T) {
	mt := newMockDeployment(t)
	res := models.ResolutionUpdate{
		ResolvedBy:                 "bob",
		ResolvedAt:                 time.Now().UTC(),
		PictureURL:                 "http://localhost/media/resolutions/a.jpg",
		Location:                   geo.Encode(37.7749, -122.4194),
		VerificationDistanceMeters: 12.5,
	}

	mt.Run("first resolution wins", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		ok, err := repo.MarkResolved(context.Background(), primitive.NewObjectID(), res)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	mt.Run("already resolved does not match", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		ok, err := repo.MarkResolved(context.Background(), primitive.NewObjectID(), res)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestIssueRepositoryTransitions(t *testing.T) {
	mt := newMockDeployment(t)

	mt.Run("mark in progress only from open", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1), updated(0, 0))

		moved, err := repo.MarkInProgress(context.Background(), primitive.NewObjectID(), time.Now())
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = repo.MarkInProgress(context.Background(), primitive.NewObjectID(), time.Now())
		require.NoError(t, err)
		assert.False(t, moved)
	})

	mt.Run("raise priority", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		raised, err := repo.RaisePriority(context.Background(), primitive.NewObjectID(), models.PriorityHigh, time.Now())
		require.NoError(t, err)
		assert.True(t, raised)
	})

	mt.Run("update missing issue", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(0, 0))

		title := "New title"
		err := repo.Update(context.Background(), primitive.NewObjectID(), models.IssueUpdate{Title: &title}, time.Now())
		assert.True(t, IsNotFound(err))
	})

	mt.Run("add comment", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(updated(1, 1))

		err := repo.AddComment(context.Background(), primitive.NewObjectID(), models.Comment{Username: "bob", Comment: "on it", CreatedAt: time.Now()})
		assert.NoError(t, err)
	})

	mt.Run("pending distributions", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		doc := append(issueDoc(primitive.NewObjectID(), models.IssueStatusResolved), bson.E{Key: "distribution_pending", Value: true})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, issuesNS, mtest.FirstBatch, doc), updated(1, 1))

		issues, err := repo.ListDistributionPending(context.Background())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.True(t, issues[0].DistributionPending)

		require.NoError(t, repo.ClearDistributionPending(context.Background(), issues[0].ID))
	})
}
