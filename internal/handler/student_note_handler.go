package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/service"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/response"
)

// StudentNoteHandler wires HTTP endpoints to the student note service.
type StudentNoteHandler struct {
	service *service.StudentNoteService
}

// NewStudentNoteHandler creates a new handler.
func NewStudentNoteHandler(svc *service.StudentNoteService) *StudentNoteHandler {
	return &StudentNoteHandler{service: svc}
}

// List godoc
// @Summary List notes about a student
// @Description List faculty notes about one student, optionally by author
// @Tags StudentNotes
// @Produce json
// @Param id path string true "Student ID"
// @Param author query string false "Author ID filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/notes [get]
func (h *StudentNoteHandler) List(c *gin.Context) {
	notes, err := h.service.ListForStudent(c.Request.Context(), viewerFromContext(c), c.Param("id"), c.Query("author"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// Create godoc
// @Summary Add a note about a student
// @Tags StudentNotes
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.CreateStudentNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/notes [post]
func (h *StudentNoteHandler) Create(c *gin.Context) {
	var req service.CreateStudentNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	req.StudentID = c.Param("id")

	note, err := h.service.Create(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}
