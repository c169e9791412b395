package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

// ForumService handles the discussion forum: queries, answers, likes and
// answer acceptance.
type ForumService struct {
	sessions  sessionManager
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewForumService constructs the service.
func NewForumService(sessions sessionManager, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ForumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForumService{sessions: sessions, audit: audit, validator: validate, logger: logger}
}

// CreateQueryRequest describes a new forum question.
type CreateQueryRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
	Subject string `json:"subject" validate:"required"`
}

// CreateAnswerRequest describes a reply to a query.
type CreateAnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

// QueryWithAnswers bundles a query with its replies for detail views.
type QueryWithAnswers struct {
	Query   models.Query    `json:"query"`
	Answers []models.Answer `json:"answers"`
}

// ListQueries returns every forum query. The forum is portal-wide; no class
// scoping applies.
func (s *ForumService) ListQueries(ctx context.Context, viewer *models.Viewer) ([]models.Query, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	return st.Queries(), nil
}

// GetQuery returns one query with its answers, oldest answer first.
func (s *ForumService) GetQuery(ctx context.Context, viewer *models.Viewer, id string) (*QueryWithAnswers, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	for _, q := range st.Queries() {
		if q.ID == id {
			return &QueryWithAnswers{Query: q, Answers: st.AnswersFor(id)}, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("query %s not found", id))
}

// CreateQuery posts a new question.
func (s *ForumService) CreateQuery(ctx context.Context, viewer *models.Viewer, req CreateQueryRequest) (*models.Query, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query payload")
	}

	now := time.Now().UTC()
	query := &models.Query{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		Author:    viewer.FullName,
		AuthorID:  viewer.ID,
		Subject:   req.Subject,
		CreatedAt: now,
		UpdatedAt: now,
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateQuery(ctx, query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create query")
	}
	return query, nil
}

// CreateAnswer posts a reply to a query and bumps its reply count.
func (s *ForumService) CreateAnswer(ctx context.Context, viewer *models.Viewer, queryID string, req CreateAnswerRequest) (*models.Answer, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	now := time.Now().UTC()
	answer := &models.Answer{
		ID:         uuid.NewString(),
		QueryID:    queryID,
		Content:    req.Content,
		Author:     viewer.FullName,
		AuthorID:   viewer.ID,
		AuthorRole: viewer.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateAnswer(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create answer")
	}
	return answer, nil
}

// ToggleLike flips the viewer's like on a query and returns the new count
// together with whether the viewer now likes it.
func (s *ForumService) ToggleLike(ctx context.Context, viewer *models.Viewer, queryID string) (int, bool, error) {
	if viewer == nil {
		return 0, false, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	likes, liked, err := st.ToggleQueryLike(ctx, queryID, viewer.ID)
	if err != nil {
		return 0, false, err
	}
	return likes, liked, nil
}

// AcceptAnswer marks an answer as the accepted one. Only the query author
// may accept, and accepting a different answer moves the mark.
func (s *ForumService) AcceptAnswer(ctx context.Context, viewer *models.Viewer, queryID, answerID string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)

	var target *models.Query
	for _, q := range st.Queries() {
		if q.ID == queryID {
			query := q
			target = &query
			break
		}
	}
	if target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("query %s not found", queryID))
	}
	if target.AuthorID != viewer.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the query author can accept an answer")
	}

	// Moving the mark to another answer is fine; re-accepting the current
	// winner is a conflict.
	for _, a := range st.AnswersFor(queryID) {
		if a.ID == answerID && a.IsAccepted {
			return appErrors.Clone(appErrors.ErrAlreadySolved, "answer is already accepted")
		}
	}

	if err := st.AcceptAnswer(ctx, queryID, answerID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept answer")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &viewer.ID,
			Action:     models.AuditActionAnswerAccept,
			Resource:   "query",
			ResourceID: &queryID,
		}); err != nil {
			s.logger.Warn("failed to record accept audit log", zap.Error(err))
		}
	}
	return nil
}

// DeleteQuery removes a query and all its answers. Only the author or an
// admin may remove it; the cascade is atomic.
func (s *ForumService) DeleteQuery(ctx context.Context, viewer *models.Viewer, queryID string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)

	var target *models.Query
	for _, q := range st.Queries() {
		if q.ID == queryID {
			query := q
			target = &query
			break
		}
	}
	if target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("query %s not found", queryID))
	}
	if viewer.Role != models.RoleAdmin && target.AuthorID != viewer.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete a query")
	}

	if err := st.DeleteQuery(ctx, queryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCascadeFailed.Code, appErrors.ErrCascadeFailed.Status, "failed to delete query")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &viewer.ID,
			Action:     models.AuditActionQueryDelete,
			Resource:   "query",
			ResourceID: &queryID,
		}); err != nil {
			s.logger.Warn("failed to record delete audit log", zap.Error(err))
		}
	}
	return nil
}
