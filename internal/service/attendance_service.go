package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/export"
	"github.com/campushub/portal-api/pkg/jobs"
	"github.com/campushub/portal-api/pkg/storage"
)

type attendanceRepository interface {
	ListRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
	Summarize(ctx context.Context, studentID string) ([]models.AttendanceSummary, error)
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, update models.ReportJobUpdate) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// AttendanceService serves per-student attendance and asynchronous report
// exports. Attendance is a read model here; records are written by the
// institution's capture system.
type AttendanceService struct {
	repo      attendanceRepository
	reports   reportJobStore
	queue     jobDispatcher
	signer    *storage.SignedURLSigner
	files     *storage.LocalStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, reports reportJobStore, queue jobDispatcher, signer *storage.SignedURLSigner, files *storage.LocalStorage, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, reports: reports, queue: queue, signer: signer, files: files, validator: validate, logger: logger}
}

// ReportRequest describes an export request.
type ReportRequest struct {
	StudentID string `json:"student_id"`
	Format    string `json:"format" validate:"required,oneof=CSV PDF"`
}

// ReportDownload carries a resolved export ready for streaming.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

// Summary returns per-subject attendance percentages for a student. LATE
// counts as half a presence, matching the portal's display rule.
func (s *AttendanceService) Summary(ctx context.Context, viewer *models.Viewer, studentID string) ([]models.AttendanceSummary, error) {
	if err := s.authorize(viewer, studentID); err != nil {
		return nil, err
	}
	summaries, err := s.repo.Summarize(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	for i := range summaries {
		if summaries[i].Total > 0 {
			weighted := float64(summaries[i].Present) + 0.5*float64(summaries[i].Late)
			summaries[i].Percentage = 100 * weighted / float64(summaries[i].Total)
		}
	}
	return summaries, nil
}

// Records returns raw attendance entries for a student.
func (s *AttendanceService) Records(ctx context.Context, viewer *models.Viewer, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	if err := s.authorize(viewer, filter.StudentID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, nil
}

// RequestReport queues an attendance export and returns the job record.
func (s *AttendanceService) RequestReport(ctx context.Context, viewer *models.Viewer, req ReportRequest) (*models.ReportJob, error) {
	if req.StudentID == "" && viewer != nil {
		req.StudentID = viewer.ID
	}
	if err := s.authorize(viewer, req.StudentID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	now := time.Now().UTC()
	job := &models.ReportJob{
		ID:          uuid.NewString(),
		StudentID:   req.StudentID,
		RequestedBy: viewer.ID,
		Format:      models.ReportFormat(req.Format),
		Status:      models.ReportStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "attendance_report", Payload: job.ID}); err != nil {
		failed := models.ReportStatusFailed
		msg := err.Error()
		if updateErr := s.reports.Update(ctx, job.ID, models.ReportJobUpdate{Status: &failed, ErrorMsg: &msg}); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

// ReportStatus returns job metadata, enforcing ownership for non-admins.
func (s *AttendanceService) ReportStatus(ctx context.Context, viewer *models.Viewer, id string) (*models.ReportJob, error) {
	job, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if viewer == nil || (viewer.Role != models.RoleAdmin && job.RequestedBy != viewer.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another viewer")
	}
	return job, nil
}

// SignedDownloadURL issues a short-lived download token for a finished job.
func (s *AttendanceService) SignedDownloadURL(ctx context.Context, viewer *models.Viewer, id string) (string, time.Time, error) {
	job, err := s.ReportStatus(ctx, viewer, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if job.Status != models.ReportStatusFinished || job.FilePath == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}
	return s.signer.Generate(job.ID, *job.FilePath)
}

// ResolveDownload validates a signed token and opens the export file.
func (s *AttendanceService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	reportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	job, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if job.Status != models.ReportStatusFinished || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}

	contentType := "text/csv"
	if job.Format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	return &ReportDownload{
		File:        file,
		Filename:    fmt.Sprintf("attendance-%s.%s", job.StudentID, strings.ToLower(string(job.Format))),
		ContentType: contentType,
	}, nil
}

func (s *AttendanceService) authorize(viewer *models.Viewer, studentID string) error {
	if viewer == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "login required")
	}
	if viewer.Role == models.RoleStudent && viewer.ID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students can only view their own attendance")
	}
	return nil
}

// ReportWorker renders queued attendance exports.
type ReportWorker struct {
	attendance attendanceRepository
	reports    reportJobStore
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	files      *storage.LocalStorage
	logger     *zap.Logger
}

// NewReportWorker constructs the worker.
func NewReportWorker(attendance attendanceRepository, reports reportJobStore, files *storage.LocalStorage, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{
		attendance: attendance,
		reports:    reports,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		files:      files,
		logger:     logger,
	}
}

// Handle processes one queued export job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	reportID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("attendance report job %s: unexpected payload %T", job.ID, job.Payload)
	}

	record, err := w.reports.FindByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", reportID, err)
	}

	processing := models.ReportStatusProcessing
	if err := w.reports.Update(ctx, reportID, models.ReportJobUpdate{Status: &processing}); err != nil {
		w.logger.Warn("failed to mark report processing", zap.String("report_id", reportID), zap.Error(err))
	}

	relPath, err := w.render(ctx, record)
	if err != nil {
		failed := models.ReportStatusFailed
		msg := err.Error()
		if updateErr := w.reports.Update(ctx, reportID, models.ReportJobUpdate{Status: &failed, ErrorMsg: &msg}); updateErr != nil {
			w.logger.Warn("failed to mark report failed", zap.String("report_id", reportID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ReportStatusFinished
	if err := w.reports.Update(ctx, reportID, models.ReportJobUpdate{Status: &finished, FilePath: &relPath}); err != nil {
		return fmt.Errorf("finalize report job %s: %w", reportID, err)
	}
	w.logger.Info("attendance report rendered", zap.String("report_id", reportID), zap.String("path", relPath))
	return nil
}

func (w *ReportWorker) render(ctx context.Context, job *models.ReportJob) (string, error) {
	summaries, err := w.attendance.Summarize(ctx, job.StudentID)
	if err != nil {
		return "", fmt.Errorf("summarize attendance for %s: %w", job.StudentID, err)
	}

	dataset := export.Dataset{
		Headers: []string{"Subject", "Total", "Present", "Late", "Percentage"},
	}
	for _, s := range summaries {
		var pct float64
		if s.Total > 0 {
			pct = 100 * (float64(s.Present) + 0.5*float64(s.Late)) / float64(s.Total)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject":    s.Subject,
			"Total":      fmt.Sprintf("%d", s.Total),
			"Present":    fmt.Sprintf("%d", s.Present),
			"Late":       fmt.Sprintf("%d", s.Late),
			"Percentage": fmt.Sprintf("%.1f%%", pct),
		})
	}

	var payload []byte
	ext := "csv"
	switch job.Format {
	case models.ReportFormatPDF:
		payload, err = w.pdf.Render(dataset, fmt.Sprintf("Attendance Report %s", job.StudentID))
		ext = "pdf"
	default:
		payload, err = w.csv.Render(dataset)
	}
	if err != nil {
		return "", fmt.Errorf("render %s report: %w", job.Format, err)
	}

	filename := fmt.Sprintf("%s.%s", job.ID, ext)
	if _, err := w.files.Save(filename, payload); err != nil {
		return "", fmt.Errorf("store report file: %w", err)
	}
	return filename, nil
}
