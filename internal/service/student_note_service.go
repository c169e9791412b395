package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

// StudentNoteService manages faculty-authored notes on students. Notes are
// append only and visible only to faculty and admins.
type StudentNoteService struct {
	sessions  sessionManager
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentNoteService constructs the service.
func NewStudentNoteService(sessions sessionManager, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *StudentNoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentNoteService{sessions: sessions, audit: audit, validator: validate, logger: logger}
}

// CreateStudentNoteRequest describes a note payload.
type CreateStudentNoteRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Note      string `json:"note" validate:"required"`
}

// ListForStudent returns notes about one student, optionally narrowed to a
// single author. Students never see notes, not even their own.
func (s *StudentNoteService) ListForStudent(ctx context.Context, viewer *models.Viewer, studentID, authorID string) ([]models.StudentNote, error) {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student notes are restricted to faculty and admins")
	}
	st := s.sessions.Acquire(ctx, viewer)
	return st.StudentNotes(models.StudentNoteFilter{StudentID: studentID, AuthorID: authorID}), nil
}

// Create appends a note about a student.
func (s *StudentNoteService) Create(ctx context.Context, viewer *models.Viewer, req CreateStudentNoteRequest) (*models.StudentNote, error) {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student notes are restricted to faculty and admins")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}

	note := &models.StudentNote{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		Note:      req.Note,
		Author:    viewer.FullName,
		AuthorID:  viewer.ID,
		CreatedAt: time.Now().UTC(),
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateStudentNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student note")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &viewer.ID,
			Action:     models.AuditActionNoteCreate,
			Resource:   "student_note",
			ResourceID: &note.ID,
		}); err != nil {
			s.logger.Warn("failed to record note audit log", zap.Error(err))
		}
	}
	return note, nil
}
