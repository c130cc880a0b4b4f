package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tankas-app/tankas-api/internal/geo"
	"github.com/tankas-app/tankas-api/internal/models"
	"github.com/tankas-app/tankas-api/internal/repository"
)

var errBoom = errors.New("boom")

type fakeIssueRepo struct {
	mu      sync.Mutex
	items   map[primitive.ObjectID]*models.Issue
	order   []primitive.ObjectID
	findErr error
	markErr error
	// raceResolved makes MarkResolved behave as if another request won.
	raceResolved bool
	cleared      []primitive.ObjectID
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{items: map[primitive.ObjectID]*models.Issue{}}
}

func (f *fakeIssueRepo) seed(issue models.Issue) *models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	stored := issue
	f.items[issue.ID] = &stored
	f.order = append(f.order, issue.ID)
	return &stored
}

func (f *fakeIssueRepo) get(id primitive.ObjectID) models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.items[id]
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	f.seed(*issue)
	return nil
}

func (f *fakeIssueRepo) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *issue
	return &copied, nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]models.Issue, 0)
	for i := len(f.order) - 1; i >= 0; i-- {
		issue := f.items[f.order[i]]
		if filter.Status != nil && issue.Status != *filter.Status {
			continue
		}
		matched = append(matched, *issue)
	}
	total := len(matched)
	if filter.Skip >= len(matched) {
		return []models.Issue{}, total, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeIssueRepo) Update(ctx context.Context, id primitive.ObjectID, update models.IssueUpdate, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if update.Title != nil {
		issue.Title = *update.Title
	}
	if update.Description != nil {
		issue.Description = *update.Description
	}
	if update.Priority != nil {
		issue.Priority = *update.Priority
	}
	if update.Difficulty != nil {
		issue.Difficulty = *update.Difficulty
	}
	issue.UpdatedAt = now
	return nil
}

func (f *fakeIssueRepo) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	issue.Comments = append(issue.Comments, comment)
	return nil
}

func (f *fakeIssueRepo) MarkInProgress(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[id]
	if !ok || issue.Status != models.IssueStatusOpen {
		return false, nil
	}
	issue.Status = models.IssueStatusInProgress
	return true, nil
}

func (f *fakeIssueRepo) MarkResolved(ctx context.Context, id primitive.ObjectID, res models.ResolutionUpdate) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[id]
	if !ok || issue.Status == models.IssueStatusResolved || f.raceResolved {
		return false, nil
	}
	issue.Status = models.IssueStatusResolved
	issue.ResolvedBy = &res.ResolvedBy
	issue.ResolvedAt = &res.ResolvedAt
	issue.ResolutionPictureURL = &res.PictureURL
	loc := res.Location
	issue.ResolutionLocation = &loc
	dist := res.VerificationDistanceMeters
	issue.VerificationDistanceMeters = &dist
	issue.DistributionPending = true
	return true, nil
}

func (f *fakeIssueRepo) RaisePriority(ctx context.Context, id primitive.ObjectID, priority models.IssuePriority, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.items[id]
	if !ok || issue.Priority == priority {
		return false, nil
	}
	issue.Priority = priority
	return true, nil
}

func (f *fakeIssueRepo) ClearDistributionPending(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue, ok := f.items[id]; ok {
		issue.DistributionPending = false
	}
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *fakeIssueRepo) ListDistributionPending(ctx context.Context) ([]models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Issue, 0)
	for _, id := range f.order {
		if issue := f.items[id]; issue.DistributionPending && issue.Status == models.IssueStatusResolved {
			out = append(out, *issue)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu           sync.Mutex
	users        map[string]*models.User
	incrementErr error
	increments   []models.PointsAward
}

func newFakeUserRepo(usernames ...string) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*models.User{}}
	for _, name := range usernames {
		repo.users[name] = &models.User{ID: primitive.NewObjectID(), Username: name}
	}
	return repo
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[username]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) Increment(ctx context.Context, award models.PointsAward) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[award.Username]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.Points += award.Points
	user.TasksCompleted += award.TasksCompleted
	user.TasksReported += award.TasksReported
	user.AreasCleaned += award.AreasCleaned
	f.increments = append(f.increments, award)
	return nil
}

func (f *fakeUserRepo) user(name string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[name]
}

type fakePledgeRepo struct {
	mu      sync.Mutex
	pledges []*models.Pledge
	// failMarkAt makes the n-th MarkDistributed call (1-based) fail.
	failMarkAt int
	markCalls  int
	listErr    error
}

func (f *fakePledgeRepo) Create(ctx context.Context, pledge *models.Pledge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pledge.ID.IsZero() {
		pledge.ID = primitive.NewObjectID()
	}
	stored := *pledge
	f.pledges = append(f.pledges, &stored)
	return nil
}

func (f *fakePledgeRepo) ListByIssue(ctx context.Context, issueID primitive.ObjectID, status *models.PledgeStatus) ([]models.Pledge, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Pledge, 0)
	for _, p := range f.pledges {
		if p.IssueID != issueID || (status != nil && p.Status != *status) {
			continue
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePledgeRepo) CountActive(ctx context.Context, issueID primitive.ObjectID) (int64, error) {
	status := models.PledgeStatusActive
	items, err := f.ListByIssue(ctx, issueID, &status)
	return int64(len(items)), err
}

func (f *fakePledgeRepo) MarkDistributed(ctx context.Context, pledgeID primitive.ObjectID, resolver string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	if f.failMarkAt > 0 && f.markCalls == f.failMarkAt {
		return false, errBoom
	}
	for _, p := range f.pledges {
		if p.ID == pledgeID && p.Status == models.PledgeStatusActive {
			p.Status = models.PledgeStatusDistributed
			p.DistributedAt = &at
			p.DistributedTo = &resolver
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePledgeRepo) countByStatus(status models.PledgeStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.pledges {
		if p.Status == status {
			n++
		}
	}
	return n
}

type fakeVolunteerRepo struct {
	mu         sync.Mutex
	volunteers []*models.Volunteer
	messages   []*models.DiscussionMessage
}

func (f *fakeVolunteerRepo) Create(ctx context.Context, v *models.Volunteer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.volunteers {
		if existing.IssueID == v.IssueID && existing.Username == v.Username && existing.Status == models.VolunteerStatusActive {
			return repository.ErrDuplicate
		}
	}
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	stored := *v
	f.volunteers = append(f.volunteers, &stored)
	return nil
}

func (f *fakeVolunteerRepo) FindActive(ctx context.Context, issueID primitive.ObjectID, username string) (*models.Volunteer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.volunteers {
		if v.IssueID == issueID && v.Username == username && v.Status == models.VolunteerStatusActive {
			copied := *v
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeVolunteerRepo) ListActive(ctx context.Context, issueID primitive.ObjectID) ([]models.Volunteer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Volunteer, 0)
	for _, v := range f.volunteers {
		if v.IssueID == issueID && v.Status == models.VolunteerStatusActive {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVolunteerRepo) Withdraw(ctx context.Context, issueID primitive.ObjectID, username string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.volunteers {
		if v.IssueID == issueID && v.Username == username && v.Status == models.VolunteerStatusActive {
			v.Status = models.VolunteerStatusWithdrawn
			v.WithdrawnAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVolunteerRepo) AddMessage(ctx context.Context, msg *models.DiscussionMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeVolunteerRepo) ListMessages(ctx context.Context, issueID primitive.ObjectID) ([]models.DiscussionMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DiscussionMessage, 0)
	for _, m := range f.messages {
		if m.IssueID == issueID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu        sync.Mutex
	entries   []models.LedgerEntry
	insertErr error
}

func (f *fakeLedger) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedger) ListByUsername(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LedgerEntry, 0)
	for _, e := range f.entries {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
}

func (f *fakeBlobStore) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "http://localhost:8000/media/" + folder + "/" + primitive.NewObjectID().Hex() + ".jpg"
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeGPS struct {
	coord geo.Coordinate
	ok    bool
	calls int
}

func (f *fakeGPS) Extract(data []byte) (geo.Coordinate, bool) {
	f.calls++
	return f.coord, f.ok
}

type fakeDistributor struct {
	summary models.DistributionSummary
	err     error
	calls   int
}

func (f *fakeDistributor) Distribute(ctx context.Context, issueID, resolver string) (models.DistributionSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeReconciler struct {
	enqueued []string
}

func (f *fakeReconciler) Enqueue(issueID, resolver string) error {
	f.enqueued = append(f.enqueued, issueID+":"+resolver)
	return nil
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 200, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
