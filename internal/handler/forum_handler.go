package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/service"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/response"
)

// ForumHandler wires HTTP endpoints to the forum service.
type ForumHandler struct {
	service *service.ForumService
}

// NewForumHandler creates a new handler.
func NewForumHandler(svc *service.ForumService) *ForumHandler {
	return &ForumHandler{service: svc}
}

// ListQueries godoc
// @Summary List forum queries
// @Tags Forum
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /forum/queries [get]
func (h *ForumHandler) ListQueries(c *gin.Context) {
	queries, err := h.service.ListQueries(c.Request.Context(), viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queries, nil)
}

// GetQuery godoc
// @Summary Get a query with its answers
// @Tags Forum
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forum/queries/{id} [get]
func (h *ForumHandler) GetQuery(c *gin.Context) {
	detail, err := h.service.GetQuery(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CreateQuery godoc
// @Summary Post a question
// @Tags Forum
// @Accept json
// @Produce json
// @Param payload body service.CreateQueryRequest true "Query payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /forum/queries [post]
func (h *ForumHandler) CreateQuery(c *gin.Context) {
	var req service.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query payload"))
		return
	}

	query, err := h.service.CreateQuery(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// CreateAnswer godoc
// @Summary Reply to a question
// @Tags Forum
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Param payload body service.CreateAnswerRequest true "Answer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /forum/queries/{id}/answers [post]
func (h *ForumHandler) CreateAnswer(c *gin.Context) {
	var req service.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}

	answer, err := h.service.CreateAnswer(c.Request.Context(), viewerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, answer)
}

// ToggleLike godoc
// @Summary Toggle a like on a query
// @Tags Forum
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forum/queries/{id}/like [post]
func (h *ForumHandler) ToggleLike(c *gin.Context) {
	likes, liked, err := h.service.ToggleLike(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"likes": likes, "liked": liked}, nil)
}

// AcceptAnswer godoc
// @Summary Accept an answer
// @Description Mark an answer accepted; only the query author may accept
// @Tags Forum
// @Produce json
// @Param id path string true "Query ID"
// @Param answerId path string true "Answer ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forum/queries/{id}/answers/{answerId}/accept [post]
func (h *ForumHandler) AcceptAnswer(c *gin.Context) {
	if err := h.service.AcceptAnswer(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Param("answerId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteQuery godoc
// @Summary Delete a query
// @Description Delete a query and all its answers (author or admin only)
// @Tags Forum
// @Produce json
// @Param id path string true "Query ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forum/queries/{id} [delete]
func (h *ForumHandler) DeleteQuery(c *gin.Context) {
	if err := h.service.DeleteQuery(c.Request.Context(), viewerFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
