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

	"github.com/campushub/portal-api/internal/middleware"
	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/service"
	"github.com/campushub/portal-api/internal/store"
)

type fakeNoticeStore struct {
	notices []models.Notice
}

func (f *fakeNoticeStore) List(ctx context.Context) ([]models.Notice, error) {
	return f.notices, nil
}

func (f *fakeNoticeStore) Create(ctx context.Context, notice *models.Notice) error {
	f.notices = append(f.notices, *notice)
	return nil
}

func (f *fakeNoticeStore) UpdatePinState(ctx context.Context, id string, state models.PinState) error {
	return nil
}

func (f *fakeNoticeStore) Delete(ctx context.Context, id string) error {
	return nil
}

type fakeAssignmentStore struct{}

func (fakeAssignmentStore) List(ctx context.Context) ([]models.Assignment, error)        { return nil, nil }
func (fakeAssignmentStore) Create(ctx context.Context, a *models.Assignment) error       { return nil }
func (fakeAssignmentStore) Delete(ctx context.Context, id string) error                  { return nil }

type fakeResourceStore struct{}

func (fakeResourceStore) List(ctx context.Context) ([]models.Resource, error)            { return nil, nil }
func (fakeResourceStore) Create(ctx context.Context, r *models.Resource) error           { return nil }
func (fakeResourceStore) IncrementDownloads(ctx context.Context, id string) (int, error) { return 1, nil }
func (fakeResourceStore) IncrementLikes(ctx context.Context, id string) (int, error)     { return 1, nil }
func (fakeResourceStore) Delete(ctx context.Context, id string) error                    { return nil }

type fakeForumStore struct{}

func (fakeForumStore) ListQueries(ctx context.Context) ([]models.Query, error)  { return nil, nil }
func (fakeForumStore) ListAnswers(ctx context.Context) ([]models.Answer, error) { return nil, nil }
func (fakeForumStore) CreateQuery(ctx context.Context, q *models.Query) error   { return nil }
func (fakeForumStore) CreateAnswer(ctx context.Context, a *models.Answer) error { return nil }
func (fakeForumStore) UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error {
	return nil
}
func (fakeForumStore) AcceptAnswer(ctx context.Context, queryID, answerID string) error { return nil }
func (fakeForumStore) DeleteQueryCascade(ctx context.Context, queryID string) error     { return nil }

type fakeStudentNoteStore struct{}

func (fakeStudentNoteStore) List(ctx context.Context) ([]models.StudentNote, error)  { return nil, nil }
func (fakeStudentNoteStore) Create(ctx context.Context, n *models.StudentNote) error { return nil }

func newNoticeTestHandler(notices *fakeNoticeStore) (*NoticeHandler, func()) {
	mgr := store.NewManager(store.Repos{
		Notices:      notices,
		Assignments:  fakeAssignmentStore{},
		Resources:    fakeResourceStore{},
		Forum:        fakeForumStore{},
		StudentNotes: fakeStudentNoteStore{},
	}, time.Minute, zap.NewNop())
	cache := service.NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := service.NewNoticeService(mgr, notices, cache, nil, nil, zap.NewNop())
	return NewNoticeHandler(svc), mgr.Shutdown
}

func setClaims(c *gin.Context, role models.UserRole, id string) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: id, Role: role, FullName: "Test Viewer",
		Department: "CSE", Year: "2024", Section: "A",
	})
}

func TestNoticeHandlerGuestList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notices := &fakeNoticeStore{notices: []models.Notice{{ID: "n-1", Category: models.NoticeCategoryGeneral}}}
	handler, cleanup := newNoticeTestHandler(notices)
	defer cleanup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notices", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.Notice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
}

func TestNoticeHandlerCreateForbiddenForStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, cleanup := newNoticeTestHandler(&fakeNoticeStore{})
	defer cleanup()

	body, _ := json.Marshal(service.CreateNoticeRequest{Title: "T", Content: "C"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setClaims(c, models.RoleStudent, "stu-1")

	handler.Create(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNoticeHandlerCreateAsFaculty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notices := &fakeNoticeStore{}
	handler, cleanup := newNoticeTestHandler(notices)
	defer cleanup()

	body, _ := json.Marshal(service.CreateNoticeRequest{Title: "Lab shift", Content: "Moved to Friday"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notices", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	setClaims(c, models.RoleFaculty, "fac-1")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, notices.notices, 1)
}

func TestNoticeHandlerPin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notices := &fakeNoticeStore{notices: []models.Notice{{ID: "n-1"}}}
	handler, cleanup := newNoticeTestHandler(notices)
	defer cleanup()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/notices/n-1/pin", nil)
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	setClaims(c, models.RoleAdmin, "adm-1")

	handler.Pin(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
