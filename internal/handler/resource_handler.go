package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/middleware"
	"github.com/campushub/portal-api/internal/service"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/response"
)

// ResourceHandler wires HTTP endpoints to the resource service.
type ResourceHandler struct {
	service *service.ResourceService
}

// NewResourceHandler creates a new handler.
func NewResourceHandler(svc *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: svc}
}

// List godoc
// @Summary List resources
// @Description List study resources visible to the viewer
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	resources, cacheHit, err := h.service.List(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, resources, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Share a resource
// @Description Create a study resource record
// @Tags Resources
// @Accept json
// @Produce json
// @Param payload body service.CreateResourceRequest true "Resource payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	var req service.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resource payload"))
		return
	}

	resource, err := h.service.Create(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// Download godoc
// @Summary Record a download
// @Description Bump the persisted download counter
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /resources/{id}/download [post]
func (h *ResourceHandler) Download(c *gin.Context) {
	downloads, err := h.service.RecordDownload(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"downloads": downloads}, nil)
}

// Like godoc
// @Summary Like a resource
// @Description Bump the persisted like counter
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /resources/{id}/like [post]
func (h *ResourceHandler) Like(c *gin.Context) {
	likes, err := h.service.Like(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"likes": likes}, nil)
}

// Favorite godoc
// @Summary Toggle a session-local favorite
// @Description Flip the viewer's favorite flag; favorites vanish on logout
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /resources/{id}/favorite [post]
func (h *ResourceHandler) Favorite(c *gin.Context) {
	favorited, err := h.service.ToggleFavorite(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"favorited": favorited}, nil)
}
