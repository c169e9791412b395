package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

func newForumService(backends stubBackends, audit *stubAudit) (*ForumService, func()) {
	mgr := backends.manager()
	// A nil *stubAudit must stay a nil interface or the audit guard passes.
	var rec auditRecorder
	if audit != nil {
		rec = audit
	}
	svc := NewForumService(mgr, rec, nil, zap.NewNop())
	return svc, mgr.Shutdown
}

func TestForumCreateQueryRequiresLogin(t *testing.T) {
	backends := newStubBackends()
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	_, err := svc.CreateQuery(context.Background(), nil, CreateQueryRequest{Title: "t", Content: "c", Subject: "DBMS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestForumAnswerCarriesAuthorRole(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-1"}}
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	answer, err := svc.CreateAnswer(context.Background(), facultyViewer(), "q-1", CreateAnswerRequest{Content: "Use an index."})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFaculty, answer.AuthorRole)

	detail, err := svc.GetQuery(context.Background(), facultyViewer(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Query.Replies)
	require.Len(t, detail.Answers, 1)
}

func TestForumAcceptAnswerAuthorOnly(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-1"}}
	backends.forum.answers = []models.Answer{{ID: "a-1", QueryID: "q-1"}}
	audit := &stubAudit{}
	svc, cleanup := newForumService(backends, audit)
	defer cleanup()

	err := svc.AcceptAnswer(context.Background(), facultyViewer(), "q-1", "a-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.AcceptAnswer(context.Background(), studentViewer(), "q-1", "a-1"))

	detail, err := svc.GetQuery(context.Background(), studentViewer(), "q-1")
	require.NoError(t, err)
	assert.True(t, detail.Query.Solved)
	require.Len(t, detail.Answers, 1)
	assert.True(t, detail.Answers[0].IsAccepted)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAnswerAccept, audit.logs[0].Action)
}

func TestForumReacceptingSameAnswerConflicts(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-1"}}
	backends.forum.answers = []models.Answer{
		{ID: "a-1", QueryID: "q-1"},
		{ID: "a-2", QueryID: "q-1"},
	}
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	require.NoError(t, svc.AcceptAnswer(context.Background(), studentViewer(), "q-1", "a-1"))

	err := svc.AcceptAnswer(context.Background(), studentViewer(), "q-1", "a-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadySolved.Code, appErrors.FromError(err).Code)

	// Moving the mark to a different answer still works.
	require.NoError(t, svc.AcceptAnswer(context.Background(), studentViewer(), "q-1", "a-2"))
}

func TestForumMutationsWorkWithoutAuditRecorder(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-1"}}
	backends.forum.answers = []models.Answer{{ID: "a-1", QueryID: "q-1"}}
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	require.NoError(t, svc.AcceptAnswer(context.Background(), studentViewer(), "q-1", "a-1"))
	require.NoError(t, svc.DeleteQuery(context.Background(), studentViewer(), "q-1"))
}

func TestForumToggleLikeRoundTrip(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-9", Likes: 3}}
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	likes, liked, err := svc.ToggleLike(context.Background(), studentViewer(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, 4, likes)
	assert.True(t, liked)

	likes, liked, err = svc.ToggleLike(context.Background(), studentViewer(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, 3, likes)
	assert.False(t, liked)
}

func TestForumDeleteQueryAuthorOrAdmin(t *testing.T) {
	backends := newStubBackends()
	backends.forum.queries = []models.Query{{ID: "q-1", AuthorID: "stu-1"}}
	backends.forum.answers = []models.Answer{{ID: "a-1", QueryID: "q-1"}}
	svc, cleanup := newForumService(backends, nil)
	defer cleanup()

	err := svc.DeleteQuery(context.Background(), facultyViewer(), "q-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteQuery(context.Background(), adminViewer(), "q-1"))

	queries, err := svc.ListQueries(context.Background(), adminViewer())
	require.NoError(t, err)
	assert.Empty(t, queries)
}
