package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/store"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

// Shared stub collaborators for the session-store backed services.

type stubNoticeStore struct {
	notices   []models.Notice
	createErr error
	pinErr    error
	deleteErr error
}

func (s *stubNoticeStore) List(ctx context.Context) ([]models.Notice, error) {
	return s.notices, nil
}

func (s *stubNoticeStore) Create(ctx context.Context, notice *models.Notice) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.notices = append(s.notices, *notice)
	return nil
}

func (s *stubNoticeStore) UpdatePinState(ctx context.Context, id string, state models.PinState) error {
	return s.pinErr
}

func (s *stubNoticeStore) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

type stubAssignmentStore struct {
	assignments []models.Assignment
	createErr   error
}

func (s *stubAssignmentStore) List(ctx context.Context) ([]models.Assignment, error) {
	return s.assignments, nil
}

func (s *stubAssignmentStore) Create(ctx context.Context, assignment *models.Assignment) error {
	return s.createErr
}

func (s *stubAssignmentStore) Delete(ctx context.Context, id string) error {
	return nil
}

type stubResourceStore struct {
	resources []models.Resource
	downloads int
	likes     int
}

func (s *stubResourceStore) List(ctx context.Context) ([]models.Resource, error) {
	return s.resources, nil
}

func (s *stubResourceStore) Create(ctx context.Context, resource *models.Resource) error {
	return nil
}

func (s *stubResourceStore) IncrementDownloads(ctx context.Context, id string) (int, error) {
	s.downloads++
	return s.downloads, nil
}

func (s *stubResourceStore) IncrementLikes(ctx context.Context, id string) (int, error) {
	s.likes++
	return s.likes, nil
}

func (s *stubResourceStore) Delete(ctx context.Context, id string) error {
	return nil
}

type stubForumStore struct {
	queries []models.Query
	answers []models.Answer
}

func (s *stubForumStore) ListQueries(ctx context.Context) ([]models.Query, error) {
	return s.queries, nil
}

func (s *stubForumStore) ListAnswers(ctx context.Context) ([]models.Answer, error) {
	return s.answers, nil
}

func (s *stubForumStore) CreateQuery(ctx context.Context, query *models.Query) error {
	return nil
}

func (s *stubForumStore) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	return nil
}

func (s *stubForumStore) UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error {
	return nil
}

func (s *stubForumStore) AcceptAnswer(ctx context.Context, queryID, answerID string) error {
	return nil
}

func (s *stubForumStore) DeleteQueryCascade(ctx context.Context, queryID string) error {
	return nil
}

type stubStudentNoteStore struct {
	notes []models.StudentNote
}

func (s *stubStudentNoteStore) List(ctx context.Context) ([]models.StudentNote, error) {
	return s.notes, nil
}

func (s *stubStudentNoteStore) Create(ctx context.Context, note *models.StudentNote) error {
	s.notes = append(s.notes, *note)
	return nil
}

type stubBackends struct {
	notices     *stubNoticeStore
	assignments *stubAssignmentStore
	resources   *stubResourceStore
	forum       *stubForumStore
	notes       *stubStudentNoteStore
}

func newStubBackends() stubBackends {
	return stubBackends{
		notices:     &stubNoticeStore{},
		assignments: &stubAssignmentStore{},
		resources:   &stubResourceStore{},
		forum:       &stubForumStore{},
		notes:       &stubStudentNoteStore{},
	}
}

func (b stubBackends) manager() *store.Manager {
	return store.NewManager(store.Repos{
		Notices:      b.notices,
		Assignments:  b.assignments,
		Resources:    b.resources,
		Forum:        b.forum,
		StudentNotes: b.notes,
	}, time.Minute, zap.NewNop())
}

type stubAudit struct {
	logs []*models.AuditLog
}

func (a *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type stubCacheRepo struct {
	entries map[string][]byte
	sets    int
	deletes []string
}

func (c *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletes = append(c.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func studentViewer() *models.Viewer {
	return &models.Viewer{ID: "stu-1", FullName: "Asha Rao", Role: models.RoleStudent, Department: "CSE", Year: "2024", Section: "A"}
}

func facultyViewer() *models.Viewer {
	return &models.Viewer{ID: "fac-1", FullName: "Prof. Iyer", Role: models.RoleFaculty, Department: "CSE"}
}

func adminViewer() *models.Viewer {
	return &models.Viewer{ID: "adm-1", FullName: "Registrar", Role: models.RoleAdmin}
}
