package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/middleware"
	"github.com/campushub/portal-api/internal/service"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/response"
)

// NoticeHandler wires HTTP endpoints to the notice service.
type NoticeHandler struct {
	service *service.NoticeService
}

// NewNoticeHandler creates a new handler.
func NewNoticeHandler(svc *service.NoticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

// List godoc
// @Summary List notices
// @Description List notices visible to the viewer, pinned entries first
// @Tags Notices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	notices, cacheHit, err := h.service.List(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, notices, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Publish a notice
// @Description Publish a notice (faculty and admins only)
// @Tags Notices
// @Accept json
// @Produce json
// @Param payload body service.CreateNoticeRequest true "Notice payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	var req service.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}

	notice, err := h.service.Create(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// Delete godoc
// @Summary Delete a notice
// @Description Delete a notice (author or admin only)
// @Tags Notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), viewerFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Pin godoc
// @Summary Pin a notice
// @Description Pin a notice, optionally until a timestamp
// @Tags Notices
// @Accept json
// @Produce json
// @Param id path string true "Notice ID"
// @Param payload body object false "Optional expiry"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id}/pin [post]
func (h *NoticeHandler) Pin(c *gin.Context) {
	var payload struct {
		Until *time.Time `json:"until"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pin payload"))
			return
		}
	}

	if err := h.service.Pin(c.Request.Context(), viewerFromContext(c), c.Param("id"), payload.Until); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unpin godoc
// @Summary Unpin a notice
// @Description Unpin a notice; unpinning an unpinned notice still succeeds
// @Tags Notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notices/{id}/pin [delete]
func (h *NoticeHandler) Unpin(c *gin.Context) {
	if err := h.service.Unpin(c.Request.Context(), viewerFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
