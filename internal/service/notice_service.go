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
	"github.com/campushub/portal-api/internal/repository"
	"github.com/campushub/portal-api/internal/store"
	"github.com/campushub/portal-api/internal/visibility"
	appErrors "github.com/campushub/portal-api/pkg/errors"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NoticeService serves notice listings through the viewer's session store
// and guards the authoring and pin operations.
type NoticeService struct {
	sessions  sessionManager
	guestRepo store.NoticeStore
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService constructs the service. guestRepo backs unauthenticated
// listings, which bypass session stores entirely.
func NewNoticeService(sessions sessionManager, guestRepo store.NoticeStore, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{sessions: sessions, guestRepo: guestRepo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// CreateNoticeRequest describes the create payload.
type CreateNoticeRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Content     string     `json:"content" validate:"required"`
	Department  string     `json:"department"`
	Subject     *string    `json:"subject"`
	Category    string     `json:"category" validate:"omitempty,oneof=GENERAL EXAM URGENT"`
	Attachments []string   `json:"attachments"`
	PinnedUntil *time.Time `json:"pinned_until"`
	Pinned      bool       `json:"pinned"`
}

// List returns the notices the viewer may see, pinned entries first and
// most recent first within each band. A nil viewer gets the guest view,
// served from cache when possible. The second return reports a cache hit.
func (s *NoticeService) List(ctx context.Context, viewer *models.Viewer) ([]models.Notice, bool, error) {
	if viewer == nil {
		return s.listGuest(ctx)
	}
	st := s.sessions.Acquire(ctx, viewer)
	notices := visibility.FilterNotices(viewer, st.Notices())
	sortNotices(notices)
	return notices, false, nil
}

func (s *NoticeService) listGuest(ctx context.Context) ([]models.Notice, bool, error) {
	key := repository.ListKey("notices", "")

	var cached []models.Notice
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	notices, err := s.guestRepo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}
	notices = visibility.FilterNotices(nil, notices)
	sortNotices(notices)

	if err := s.cache.Set(ctx, key, notices, 0); err != nil {
		s.logger.Warn("failed to cache guest notice listing", zap.Error(err))
	}
	return notices, false, nil
}

// Create publishes a notice. Students cannot create notices.
func (s *NoticeService) Create(ctx context.Context, viewer *models.Viewer, req CreateNoticeRequest) (*models.Notice, error) {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only faculty and admins can publish notices")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	category := models.NoticeCategory(req.Category)
	if category == "" {
		category = models.NoticeCategoryGeneral
	}
	department := req.Department
	if department == "" {
		department = viewer.Department
	}

	now := time.Now().UTC()
	notice := &models.Notice{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Content:     req.Content,
		Author:      viewer.FullName,
		AuthorID:    viewer.ID,
		Department:  department,
		Subject:     req.Subject,
		Category:    category,
		Pinned:      req.Pinned,
		PinnedUntil: req.PinnedUntil,
		Attachments: req.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !notice.Pinned {
		notice.PinnedUntil = nil
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateNotice(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, viewer, models.AuditActionNoticeCreate, notice.ID)
	return notice, nil
}

// Delete removes a notice. Only the author or an admin may remove it.
func (s *NoticeService) Delete(ctx context.Context, viewer *models.Viewer, id string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)

	var target *models.Notice
	for _, n := range st.Notices() {
		if n.ID == id {
			notice := n
			target = &notice
			break
		}
	}
	if target == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("notice %s not found", id))
	}
	if viewer.Role != models.RoleAdmin && target.AuthorID != viewer.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete a notice")
	}

	if err := st.DeleteNotice(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, viewer, models.AuditActionNoticeDelete, id)
	return nil
}

// Pin elevates a notice, optionally until a timestamp. Students cannot pin.
func (s *NoticeService) Pin(ctx context.Context, viewer *models.Viewer, id string, until *time.Time) error {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only faculty and admins can pin notices")
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.Pin(ctx, id, until); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pin notice")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, viewer, models.AuditActionNoticePin, id)
	return nil
}

// Unpin demotes a notice. Unpinning an unpinned notice still succeeds.
func (s *NoticeService) Unpin(ctx context.Context, viewer *models.Viewer, id string) error {
	if viewer == nil || viewer.Role == models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only faculty and admins can unpin notices")
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.Unpin(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unpin notice")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, viewer, models.AuditActionNoticeUnpin, id)
	return nil
}

func (s *NoticeService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "portal:list:notices:*"); err != nil {
		s.logger.Warn("failed to invalidate notice listings", zap.Error(err))
	}
}

func (s *NoticeService) recordAudit(ctx context.Context, viewer *models.Viewer, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &viewer.ID,
		Action:     action,
		Resource:   "notice",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record notice audit log", zap.Error(err))
	}
}

func sortNotices(notices []models.Notice) {
	sort.SliceStable(notices, func(i, j int) bool {
		if notices[i].Pinned != notices[j].Pinned {
			return notices[i].Pinned
		}
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})
}
