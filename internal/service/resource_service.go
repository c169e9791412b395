package service

import (
	"context"
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

// ResourceService serves the shared resource library. Download and like
// counters persist; per-viewer favorites live only in the session store.
type ResourceService struct {
	sessions  sessionManager
	guestRepo store.ResourceStore
	cache     *CacheService
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs the service.
func NewResourceService(sessions sessionManager, guestRepo store.ResourceStore, cache *CacheService, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{sessions: sessions, guestRepo: guestRepo, cache: cache, audit: audit, validator: validate, logger: logger}
}

// CreateResourceRequest describes the upload payload.
type CreateResourceRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description"`
	Type        string   `json:"type" validate:"required,oneof=PDF PPT DOC VIDEO IMAGE OTHER"`
	Subject     string   `json:"subject" validate:"required"`
	Size        string   `json:"size"`
	Tags        []string `json:"tags"`
}

// List returns resources visible to the viewer, newest first. A nil viewer
// gets the guest view from cache. The second return reports a cache hit.
func (s *ResourceService) List(ctx context.Context, viewer *models.Viewer) ([]models.Resource, bool, error) {
	if viewer == nil {
		return s.listGuest(ctx)
	}
	st := s.sessions.Acquire(ctx, viewer)
	resources := visibility.FilterResources(viewer, st.Resources())
	sort.SliceStable(resources, func(i, j int) bool {
		return resources[i].CreatedAt.After(resources[j].CreatedAt)
	})
	return resources, false, nil
}

func (s *ResourceService) listGuest(ctx context.Context) ([]models.Resource, bool, error) {
	key := repository.ListKey("resources", "")

	var cached []models.Resource
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	resources, err := s.guestRepo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	resources = visibility.FilterResources(nil, resources)

	if err := s.cache.Set(ctx, key, resources, 0); err != nil {
		s.logger.Warn("failed to cache guest resource listing", zap.Error(err))
	}
	return resources, false, nil
}

// Create uploads a resource record. Any authenticated viewer may share.
func (s *ResourceService) Create(ctx context.Context, viewer *models.Viewer, req CreateResourceRequest) (*models.Resource, error) {
	if viewer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	now := time.Now().UTC()
	resource := &models.Resource{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Type:        models.ResourceType(req.Type),
		Subject:     req.Subject,
		UploadedBy:  viewer.FullName,
		UploaderID:  viewer.ID,
		Size:        req.Size,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	st := s.sessions.Acquire(ctx, viewer)
	if err := st.CreateResource(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}

	if err := s.cache.Invalidate(ctx, "portal:list:resources:*"); err != nil {
		s.logger.Warn("failed to invalidate resource listings", zap.Error(err))
	}
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &viewer.ID,
			Action:     models.AuditActionResourceUpload,
			Resource:   "resource",
			ResourceID: &resource.ID,
		}); err != nil {
			s.logger.Warn("failed to record resource audit log", zap.Error(err))
		}
	}
	return resource, nil
}

// RecordDownload bumps the persisted download counter and returns the new
// value. Downloads only grow.
func (s *ResourceService) RecordDownload(ctx context.Context, viewer *models.Viewer, id string) (int, error) {
	if viewer == nil {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	downloads, err := st.RecordResourceDownload(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record download")
	}
	return downloads, nil
}

// Like bumps the persisted like counter and returns the new value.
func (s *ResourceService) Like(ctx context.Context, viewer *models.Viewer, id string) (int, error) {
	if viewer == nil {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	likes, err := st.LikeResource(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to like resource")
	}
	return likes, nil
}

// ToggleFavorite flips the session-local favorite flag and reports the new
// value. Favorites are never persisted and vanish on logout.
func (s *ResourceService) ToggleFavorite(ctx context.Context, viewer *models.Viewer, id string) (bool, error) {
	if viewer == nil {
		return false, appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	st := s.sessions.Acquire(ctx, viewer)
	return st.ToggleResourceFavorite(id), nil
}
