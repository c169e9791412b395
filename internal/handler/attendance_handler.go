package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/portal-api/internal/models"
	"github.com/campushub/portal-api/internal/service"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Summary godoc
// @Summary Attendance summary
// @Description Per-subject attendance percentages for the viewer
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	viewer := viewerFromContext(c)
	if viewer == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = viewer.ID
	}

	summaries, err := h.service.Summary(c.Request.Context(), viewer, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Records godoc
// @Summary Attendance records
// @Description Raw attendance entries for the viewer, newest first
// @Tags Attendance
// @Produce json
// @Param subject query string false "Subject filter"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/records [get]
func (h *AttendanceHandler) Records(c *gin.Context) {
	viewer := viewerFromContext(c)
	if viewer == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = viewer.ID
	}

	records, err := h.service.Records(c.Request.Context(), viewer, models.AttendanceFilter{
		StudentID: studentID,
		Subject:   c.Query("subject"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// RequestReport godoc
// @Summary Request an attendance report
// @Description Queue an asynchronous CSV or PDF export
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/reports [post]
func (h *AttendanceHandler) RequestReport(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report request"))
		return
	}

	job, err := h.service.RequestReport(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Attendance
// @Produce json
// @Param id path string true "Report job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/reports/{id} [get]
func (h *AttendanceHandler) ReportStatus(c *gin.Context) {
	job, err := h.service.ReportStatus(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload := gin.H{"job": job}
	if job.Status == models.ReportStatusFinished {
		url, expires, err := h.service.SignedDownloadURL(c.Request.Context(), viewerFromContext(c), job.ID)
		if err == nil {
			payload["download_token"] = url
			payload["expires_at"] = expires
		}
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Download godoc
// @Summary Download a finished report
// @Description Stream an export using a signed token; no session required
// @Tags Attendance
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /attendance/reports/download [get]
func (h *AttendanceHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", "attachment; filename="+download.Filename)
	c.Header("Content-Type", download.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		_ = c.Error(err)
	}
}
