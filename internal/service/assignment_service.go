package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/visibility"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

// AssignmentService serves class-scoped assignment listings and guards the
// authoring operations.
type AssignmentService struct {
	sessions  sessionManager
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(sessions sessionManager, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{sessions: sessions, audit: audit, validator: validate, logger: logger}
}

// CreateAssignmentRequest describes the create payload. Class targets must
// use the {department}-{year}-{section} shape; an empty list publishes the
// assignment to every class.
type CreateAssignmentRequest struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"required"`
	Subject      string    `json:"subject" validate:"required"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	Attachments  []string  `json:"attachments"`
	ClassTargets []string  `json:"class_targets"`
}

// List returns assignments the viewer's class may see, soonest due first.
func (s *AssignmentService) List(ctx context.Context, viewer *models.Viewer) ([]models.Assignment, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	assignments := visibility.FilterAssignments(viewer, st.Assignments())
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].DueDate.Before(assignments[j].DueDate)
	})
	return assignments, nil
}

// Create publishes an assignment. Students cannot create assignments.
func (s *AssignmentService) Create(ctx context.Context, viewer *models.Viewer, req CreateAssignmentRequest) (*models.Assignment, error) {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and admins can publish assignments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	for _, target := range req.ClassTargets {
		if !models.ValidClassTarget(target) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed class target %q", target))
		}
	}

	now := time.Now().UTC()
	assignment := &models.Assignment{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Subject:      req.Subject,
		DueDate:      req.DueDate,
		Author:       viewer.FullName,
		AuthorID:     viewer.ID,
		AuthorRole:   viewer.Role,
		Attachments:  req.Attachments,
		ClassTargets: req.ClassTargets,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.recordAudit(ctx, viewer, models.AuditActionAssignment, assignment.ID)
	return assignment, nil
}

// Delete removes an assignment. Only the author or an admin may remove it.
func (s *AssignmentService) Delete(ctx context.Context, viewer *models.Viewer, id string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)

	var target *models.Assignment
	for _, a := range st.Assignments() {
		if a.ID == id {
			assignment := a
			target = &assignment
			break
		}
	}
	if target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %s not found", id))
	}
	if viewer.Role != models.RoleAdmin && target.AuthorID != viewer.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete an assignment")
	}

	if err := st.DeleteAssignment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) recordAudit(ctx context.Context, viewer *models.Viewer, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &viewer.ID,
		Action:     action,
		Resource:   "assignment",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record assignment audit log", zap.Error(err))
	}
}
