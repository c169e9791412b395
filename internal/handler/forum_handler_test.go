package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/service"
	"github.com/campushub/portal-api/internal/store"
)

type recordingForumStore struct {
	queries []models.Query
	answers []models.Answer
	deleted []string
}

func (f *recordingForumStore) ListQueries(ctx context.Context) ([]models.Query, error) {
	return f.queries, nil
}

func (f *recordingForumStore) ListAnswers(ctx context.Context) ([]models.Answer, error) {
	return f.answers, nil
}

func (f *recordingForumStore) CreateQuery(ctx context.Context, q *models.Query) error {
	f.queries = append(f.queries, *q)
	return nil
}

func (f *recordingForumStore) CreateAnswer(ctx context.Context, a *models.Answer) error {
	f.answers = append(f.answers, *a)
	return nil
}

func (f *recordingForumStore) UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error {
	return nil
}

func (f *recordingForumStore) AcceptAnswer(ctx context.Context, queryID, answerID string) error {
	return nil
}

func (f *recordingForumStore) DeleteQueryCascade(ctx context.Context, queryID string) error {
	f.deleted = append(f.deleted, queryID)
	return nil
}

func newForumTestHandler(forum *recordingForumStore) (*ForumHandler, func()) {
	mgr := store.NewManager(store.Repos{
		Notices:      &fakeNoticeStore{},
		Assignments:  fakeAssignmentStore{},
		Resources:    fakeResourceStore{},
		Forum:        forum,
		StudentNotes: fakeStudentNoteStore{},
	}, time.Minute, zap.NewNop())
	svc := service.NewForumService(mgr, nil, nil, zap.NewNop())
	return NewForumHandler(svc), mgr.Shutdown
}

func TestForumHandlerCreateQueryRequiresLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, cleanup := newForumTestHandler(&recordingForumStore{})
	defer cleanup()

	body, _ := json.Marshal(service.CreateQueryRequest{Title: "Q", Content: "C", Subject: "Math"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/forum/queries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.CreateQuery(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForumHandlerCreateAndGetQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	forum := &recordingForumStore{}
	handler, cleanup := newForumTestHandler(forum)
	defer cleanup()

	body, _ := json.Marshal(service.CreateQueryRequest{Title: "Pointers", Content: "How do receivers work?", Subject: "Go"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/forum/queries", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setClaims(c, models.RoleStudent, "stu-1")

	handler.CreateQuery(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, forum.queries, 1)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/forum/queries/"+forum.queries[0].ID, nil)
	c.Params = gin.Params{{Key: "id", Value: forum.queries[0].ID}}
	setClaims(c, models.RoleStudent, "stu-1")

	handler.GetQuery(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForumHandlerAcceptAnswerRejectsNonAuthor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	forum := &recordingForumStore{
		queries: []models.Query{{ID: "q-1", AuthorID: "stu-1", Title: "Q"}},
		answers: []models.Answer{{ID: "a-1", QueryID: "q-1", AuthorID: "fac-1"}},
	}
	handler, cleanup := newForumTestHandler(forum)
	defer cleanup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/forum/queries/q-1/answers/a-1/accept", nil)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}, {Key: "answerId", Value: "a-1"}}
	setClaims(c, models.RoleStudent, "stu-2")

	handler.AcceptAnswer(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestForumHandlerDeleteQueryCascades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	forum := &recordingForumStore{
		queries: []models.Query{{ID: "q-1", AuthorID: "stu-1", Title: "Q"}},
	}
	handler, cleanup := newForumTestHandler(forum)
	defer cleanup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/forum/queries/q-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	setClaims(c, models.RoleAdmin, "adm-1")

	handler.DeleteQuery(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"q-1"}, forum.deleted)
}
