package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
)

type pinCall struct {
	id    string
	state models.PinState
}

type noticeRepoStub struct {
	notices   []models.Notice
	listErr   error
	createErr error
	pinErr    error
	deleteErr error
	pinCalls  []pinCall
}

func (s *noticeRepoStub) List(ctx context.Context) ([]models.Notice, error) {
	return s.notices, s.listErr
}

func (s *noticeRepoStub) Create(ctx context.Context, notice *models.Notice) error {
	if s.createErr != nil {
		return s.createErr
	}
	if notice.ID == "" {
		notice.ID = fmt.Sprintf("n-%d", len(s.notices)+1)
	}
	return nil
}

func (s *noticeRepoStub) UpdatePinState(ctx context.Context, id string, state models.PinState) error {
	if s.pinErr != nil {
		return s.pinErr
	}
	s.pinCalls = append(s.pinCalls, pinCall{id: id, state: state})
	return nil
}

func (s *noticeRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

type assignmentRepoStub struct {
	assignments []models.Assignment
	listErr     error
	createErr   error
}

func (s *assignmentRepoStub) List(ctx context.Context) ([]models.Assignment, error) {
	return s.assignments, s.listErr
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	return s.createErr
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

type resourceRepoStub struct {
	resources []models.Resource
	listErr   error
	downloads int
	likes     int
	countErr  error
}

func (s *resourceRepoStub) List(ctx context.Context) ([]models.Resource, error) {
	return s.resources, s.listErr
}

func (s *resourceRepoStub) Create(ctx context.Context, resource *models.Resource) error {
	return nil
}

func (s *resourceRepoStub) IncrementDownloads(ctx context.Context, id string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.downloads++
	return s.downloads, nil
}

func (s *resourceRepoStub) IncrementLikes(ctx context.Context, id string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.likes++
	return s.likes, nil
}

func (s *resourceRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

type forumRepoStub struct {
	queries    []models.Query
	answers    []models.Answer
	listErr    error
	likesErr   error
	acceptErr  error
	cascadeErr error

	likeCalls    int
	lastLikes    int
	lastLikedBy  []string
	acceptCalls  []string
	cascadeCalls []string
}

func (s *forumRepoStub) ListQueries(ctx context.Context) ([]models.Query, error) {
	return s.queries, s.listErr
}

func (s *forumRepoStub) ListAnswers(ctx context.Context) ([]models.Answer, error) {
	return s.answers, s.listErr
}

func (s *forumRepoStub) CreateQuery(ctx context.Context, query *models.Query) error {
	return nil
}

func (s *forumRepoStub) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	return nil
}

func (s *forumRepoStub) UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error {
	if s.likesErr != nil {
		return s.likesErr
	}
	s.likeCalls++
	s.lastLikes = likes
	s.lastLikedBy = likedBy
	return nil
}

func (s *forumRepoStub) AcceptAnswer(ctx context.Context, queryID, answerID string) error {
	if s.acceptErr != nil {
		return s.acceptErr
	}
	s.acceptCalls = append(s.acceptCalls, answerID)
	return nil
}

func (s *forumRepoStub) DeleteQueryCascade(ctx context.Context, queryID string) error {
	if s.cascadeErr != nil {
		return s.cascadeErr
	}
	s.cascadeCalls = append(s.cascadeCalls, queryID)
	return nil
}

type noteRepoStub struct {
	notes   []models.StudentNote
	listErr error
}

func (s *noteRepoStub) List(ctx context.Context) ([]models.StudentNote, error) {
	return s.notes, s.listErr
}

func (s *noteRepoStub) Create(ctx context.Context, note *models.StudentNote) error {
	return nil
}

type stubRepos struct {
	notices     *noticeRepoStub
	assignments *assignmentRepoStub
	resources   *resourceRepoStub
	forum       *forumRepoStub
	notes       *noteRepoStub
}

func newStubRepos() stubRepos {
	return stubRepos{
		notices:     &noticeRepoStub{},
		assignments: &assignmentRepoStub{},
		resources:   &resourceRepoStub{},
		forum:       &forumRepoStub{},
		notes:       &noteRepoStub{},
	}
}

func (r stubRepos) repos() Repos {
	return Repos{
		Notices:      r.notices,
		Assignments:  r.assignments,
		Resources:    r.resources,
		Forum:        r.forum,
		StudentNotes: r.notes,
	}
}

func testViewer() *models.Viewer {
	return &models.Viewer{ID: "fac-1", Role: models.RoleFaculty, Department: "CSE"}
}

func TestLoadIsolatesFailures(t *testing.T) {
	repos := newStubRepos()
	repos.notices.listErr = fmt.Errorf("notices table unreachable")
	repos.assignments.assignments = []models.Assignment{{ID: "a-1"}}
	repos.resources.resources = []models.Resource{{ID: "r-1"}}
	repos.forum.queries = []models.Query{{ID: "q-1"}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	assert.Empty(t, st.Notices())
	assert.Len(t, st.Assignments(), 1)
	assert.Len(t, st.Resources(), 1)
	assert.Len(t, st.Queries(), 1)
}

func TestCreateNoticePrepends(t *testing.T) {
	repos := newStubRepos()
	repos.notices.notices = []models.Notice{{ID: "n-old"}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	notice := &models.Notice{Title: "New exam schedule"}
	require.NoError(t, st.CreateNotice(context.Background(), notice))

	notices := st.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, notice.ID, notices[0].ID)
	assert.Equal(t, "n-old", notices[1].ID)
}

func TestCreateNoticeRemoteFailureLeavesMemoryUntouched(t *testing.T) {
	repos := newStubRepos()
	repos.notices.createErr = fmt.Errorf("insert rejected")

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	err := st.CreateNotice(context.Background(), &models.Notice{Title: "Doomed"})
	assert.Error(t, err)
	assert.Empty(t, st.Notices())
}

func TestPinInvariantHoldsAcrossTransitions(t *testing.T) {
	repos := newStubRepos()
	repos.notices.notices = []models.Notice{{ID: "n-1"}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	until := time.Now().Add(time.Hour)
	require.NoError(t, st.Pin(context.Background(), "n-1", &until))

	notices := st.Notices()
	require.True(t, notices[0].Pinned)
	require.NotNil(t, notices[0].PinnedUntil)

	require.NoError(t, st.Unpin(context.Background(), "n-1"))
	notices = st.Notices()
	assert.False(t, notices[0].Pinned)
	assert.Nil(t, notices[0].PinnedUntil)

	// Unpin is idempotent.
	require.NoError(t, st.Unpin(context.Background(), "n-1"))
	notices = st.Notices()
	assert.False(t, notices[0].Pinned)
	assert.Nil(t, notices[0].PinnedUntil)
}

func TestPinAcceptsPastExpiry(t *testing.T) {
	repos := newStubRepos()
	repos.notices.notices = []models.Notice{{ID: "n-1"}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	past := time.Now().Add(-time.Hour)
	require.NoError(t, st.Pin(context.Background(), "n-1", &past))

	notices := st.Notices()
	assert.True(t, notices[0].Pinned)
	require.NotNil(t, notices[0].PinnedUntil)
}

func TestSweepDemotesExpiredPins(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repos := newStubRepos()
	repos.notices.notices = []models.Notice{{ID: "n-1"}, {ID: "n-2"}}

	st := New(testViewer(), repos.repos(), zap.NewNop(), WithClock(func() time.Time { return current }))
	st.Load(context.Background())

	until := current.Add(time.Second)
	require.NoError(t, st.Pin(context.Background(), "n-1", &until))
	require.NoError(t, st.Pin(context.Background(), "n-2", nil))

	// Nothing expires before the deadline.
	st.Sweep(context.Background())
	notices := st.Notices()
	assert.True(t, notices[0].Pinned)
	assert.True(t, notices[1].Pinned)

	current = current.Add(2 * time.Second)
	st.Sweep(context.Background())

	notices = st.Notices()
	assert.False(t, notices[0].Pinned)
	assert.Nil(t, notices[0].PinnedUntil)
	// A pin without expiry is never auto-unpinned.
	assert.True(t, notices[1].Pinned)
	assert.Nil(t, notices[1].PinnedUntil)
}

func TestSweepIsIdempotent(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repos := newStubRepos()
	repos.notices.notices = []models.Notice{{ID: "n-1"}}

	st := New(testViewer(), repos.repos(), zap.NewNop(), WithClock(func() time.Time { return current }))
	st.Load(context.Background())

	until := current.Add(-time.Minute)
	require.NoError(t, st.Pin(context.Background(), "n-1", &until))

	st.Sweep(context.Background())
	afterFirst := st.Notices()
	pinWrites := len(repos.notices.pinCalls)

	st.Sweep(context.Background())
	afterSecond := st.Notices()

	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, pinWrites, len(repos.notices.pinCalls))
}

func TestSweepRemoteFailureKeepsPin(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repos := newStubRepos()
	until := current.Add(-time.Minute)
	repos.notices.notices = []models.Notice{{ID: "n-1", Pinned: true, PinnedUntil: &until}}

	st := New(testViewer(), repos.repos(), zap.NewNop(), WithClock(func() time.Time { return current }))
	st.Load(context.Background())

	repos.notices.pinErr = fmt.Errorf("database unreachable")
	st.Sweep(context.Background())

	notices := st.Notices()
	assert.True(t, notices[0].Pinned)
	require.NotNil(t, notices[0].PinnedUntil)

	repos.notices.pinErr = nil
	st.Sweep(context.Background())
	notices = st.Notices()
	assert.False(t, notices[0].Pinned)
	assert.Nil(t, notices[0].PinnedUntil)
}

func TestToggleQueryLikeTwiceRestoresState(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1", Likes: 5, LikedBy: []string{"stu-9"}}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	likes, liked, err := st.ToggleQueryLike(context.Background(), "q-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 6, likes)
	assert.True(t, liked)

	likes, liked, err = st.ToggleQueryLike(context.Background(), "q-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 5, likes)
	assert.False(t, liked)

	queries := st.Queries()
	assert.Equal(t, 5, queries[0].Likes)
	assert.Equal(t, []string{"stu-9"}, queries[0].LikedBy)
}

func TestToggleQueryLikeRemoteFailure(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1", Likes: 2}}
	repos.forum.likesErr = fmt.Errorf("update failed")

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	_, _, err := st.ToggleQueryLike(context.Background(), "q-1", "stu-1")
	assert.Error(t, err)

	queries := st.Queries()
	assert.Equal(t, 2, queries[0].Likes)
	assert.Empty(t, queries[0].LikedBy)
}

func TestAcceptAnswerSingleWinner(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1"}}
	repos.forum.answers = []models.Answer{
		{ID: "a-1", QueryID: "q-1"},
		{ID: "a-2", QueryID: "q-1"},
		{ID: "a-3", QueryID: "q-2"},
	}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	require.NoError(t, st.AcceptAnswer(context.Background(), "q-1", "a-1"))
	require.NoError(t, st.AcceptAnswer(context.Background(), "q-1", "a-2"))

	answers := st.AnswersFor("q-1")
	accepted := 0
	for _, a := range answers {
		if a.IsAccepted {
			accepted++
			assert.Equal(t, "a-2", a.ID)
		}
	}
	assert.Equal(t, 1, accepted)

	queries := st.Queries()
	assert.True(t, queries[0].Solved)

	// Answers of other queries are untouched.
	other := st.AnswersFor("q-2")
	require.Len(t, other, 1)
	assert.False(t, other[0].IsAccepted)
}

func TestDeleteQueryCascadesToAnswers(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1"}, {ID: "q-2"}}
	repos.forum.answers = []models.Answer{
		{ID: "a-1", QueryID: "q-1"},
		{ID: "a-2", QueryID: "q-1"},
		{ID: "a-3", QueryID: "q-2"},
	}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	require.NoError(t, st.DeleteQuery(context.Background(), "q-1"))

	assert.Empty(t, st.AnswersFor("q-1"))
	assert.Len(t, st.AnswersFor("q-2"), 1)
	queries := st.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "q-2", queries[0].ID)
}

func TestDeleteQueryCascadeFailureLeavesMemory(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1"}}
	repos.forum.answers = []models.Answer{{ID: "a-1", QueryID: "q-1"}}
	repos.forum.cascadeErr = fmt.Errorf("answers delete failed")

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	err := st.DeleteQuery(context.Background(), "q-1")
	assert.Error(t, err)
	assert.Len(t, st.Queries(), 1)
	assert.Len(t, st.AnswersFor("q-1"), 1)
}

func TestCreateAnswerBumpsReplies(t *testing.T) {
	repos := newStubRepos()
	repos.forum.queries = []models.Query{{ID: "q-1", Replies: 1}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	answer := &models.Answer{ID: "a-9", QueryID: "q-1", Content: "Try EXPLAIN ANALYZE."}
	require.NoError(t, st.CreateAnswer(context.Background(), answer))

	queries := st.Queries()
	assert.Equal(t, 2, queries[0].Replies)
	assert.Len(t, st.AnswersFor("q-1"), 1)
}

func TestToggleResourceFavoriteIsSessionLocal(t *testing.T) {
	repos := newStubRepos()
	repos.resources.resources = []models.Resource{{ID: "r-1"}}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	assert.True(t, st.ToggleResourceFavorite("r-1"))
	resources := st.Resources()
	assert.True(t, resources[0].Favorited)

	assert.False(t, st.ToggleResourceFavorite("r-1"))
	resources = st.Resources()
	assert.False(t, resources[0].Favorited)
}

func TestRecordResourceDownloadMirrorsCounter(t *testing.T) {
	repos := newStubRepos()
	repos.resources.resources = []models.Resource{{ID: "r-1", Downloads: 0}}
	repos.resources.downloads = 41

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	downloads, err := st.RecordResourceDownload(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, 42, downloads)

	resources := st.Resources()
	assert.Equal(t, 42, resources[0].Downloads)
}

func TestStudentNotesFilterByAuthor(t *testing.T) {
	repos := newStubRepos()
	repos.notes.notes = []models.StudentNote{
		{ID: "sn-1", StudentID: "stu-1", AuthorID: "fac-1"},
		{ID: "sn-2", StudentID: "stu-1", AuthorID: "fac-2"},
		{ID: "sn-3", StudentID: "stu-2", AuthorID: "fac-1"},
	}

	st := New(testViewer(), repos.repos(), zap.NewNop())
	st.Load(context.Background())

	assert.Len(t, st.StudentNotes(models.StudentNoteFilter{StudentID: "stu-1"}), 2)

	scoped := st.StudentNotes(models.StudentNoteFilter{StudentID: "stu-1", AuthorID: "fac-2"})
	require.Len(t, scoped, 1)
	assert.Equal(t, "sn-2", scoped[0].ID)
}
