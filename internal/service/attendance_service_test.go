package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/portal-api/internal/models"
	appErrors "github.com/campushub/portal-api/pkg/errors"
	"github.com/campushub/portal-api/pkg/jobs"
	"github.com/campushub/portal-api/pkg/storage"
)

type stubAttendanceRepo struct {
	records   []models.AttendanceRecord
	summaries []models.AttendanceSummary
}

func (s *stubAttendanceRepo) ListRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	return s.records, nil
}

func (s *stubAttendanceRepo) Summarize(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	return s.summaries, nil
}

type stubReportStore struct {
	jobsByID map[string]*models.ReportJob
}

func (s *stubReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	if s.jobsByID == nil {
		s.jobsByID = make(map[string]*models.ReportJob)
	}
	copied := *job
	s.jobsByID[job.ID] = &copied
	return nil
}

func (s *stubReportStore) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.jobsByID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

func (s *stubReportStore) Update(ctx context.Context, id string, update models.ReportJobUpdate) error {
	job, ok := s.jobsByID[id]
	if !ok {
		return errors.New("not found")
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.FilePath != nil {
		job.FilePath = update.FilePath
	}
	if update.ErrorMsg != nil {
		job.ErrorMsg = update.ErrorMsg
	}
	return nil
}

type stubDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (s *stubDispatcher) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, job)
	return nil
}

func TestAttendanceSummaryWeightsLateAsHalf(t *testing.T) {
	repo := &stubAttendanceRepo{summaries: []models.AttendanceSummary{
		{Subject: "DBMS", Total: 10, Present: 6, Late: 2},
	}}
	svc := NewAttendanceService(repo, nil, nil, nil, nil, nil, zap.NewNop())

	summaries, err := svc.Summary(context.Background(), studentViewer(), "stu-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.InDelta(t, 70.0, summaries[0].Percentage, 0.01)
}

func TestAttendanceStudentCannotReadOthers(t *testing.T) {
	svc := NewAttendanceService(&stubAttendanceRepo{}, nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.Summary(context.Background(), studentViewer(), "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Faculty may read any student.
	_, err = svc.Summary(context.Background(), facultyViewer(), "stu-2")
	require.NoError(t, err)
}

func TestAttendanceRequestReportQueuesJob(t *testing.T) {
	reports := &stubReportStore{}
	queue := &stubDispatcher{}
	svc := NewAttendanceService(&stubAttendanceRepo{}, reports, queue, nil, nil, nil, zap.NewNop())

	job, err := svc.RequestReport(context.Background(), studentViewer(), ReportRequest{Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, "stu-1", job.StudentID)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "attendance_report", queue.enqueued[0].Type)
}

func TestAttendanceEnqueueFailureMarksJobFailed(t *testing.T) {
	reports := &stubReportStore{}
	queue := &stubDispatcher{err: errors.New("queue full")}
	svc := NewAttendanceService(&stubAttendanceRepo{}, reports, queue, nil, nil, nil, zap.NewNop())

	_, err := svc.RequestReport(context.Background(), studentViewer(), ReportRequest{Format: "PDF"})
	require.Error(t, err)
	for _, job := range reports.jobsByID {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestReportWorkerRendersAndStoresCSV(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	repo := &stubAttendanceRepo{summaries: []models.AttendanceSummary{
		{Subject: "DBMS", Total: 20, Present: 18, Late: 0},
		{Subject: "OS", Total: 20, Present: 10, Late: 4},
	}}
	reports := &stubReportStore{}
	now := time.Now().UTC()
	require.NoError(t, reports.Create(context.Background(), &models.ReportJob{
		ID: "job-1", StudentID: "stu-1", RequestedBy: "stu-1",
		Format: models.ReportFormatCSV, Status: models.ReportStatusQueued,
		CreatedAt: now, UpdatedAt: now,
	}))

	worker := NewReportWorker(repo, reports, files, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Type: "attendance_report", Payload: "job-1"}))

	job, err := reports.FindByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	require.NotNil(t, job.FilePath)

	file, err := files.Open(*job.FilePath)
	require.NoError(t, err)
	file.Close()
}

func TestAttendanceDownloadRoundTrip(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)

	_, err = files.Save("job-1.csv", []byte("Subject,Total\nDBMS,20\n"))
	require.NoError(t, err)

	path := "job-1.csv"
	reports := &stubReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", StudentID: "stu-1", RequestedBy: "stu-1", Format: models.ReportFormatCSV, Status: models.ReportStatusFinished, FilePath: &path},
	}}
	svc := NewAttendanceService(&stubAttendanceRepo{}, reports, nil, signer, files, nil, zap.NewNop())

	token, _, err := svc.SignedDownloadURL(context.Background(), studentViewer(), "job-1")
	require.NoError(t, err)

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "attendance-stu-1.csv", download.Filename)
}

func TestAttendanceReportStatusOwnership(t *testing.T) {
	reports := &stubReportStore{jobsByID: map[string]*models.ReportJob{
		"job-1": {ID: "job-1", StudentID: "stu-1", RequestedBy: "stu-1", Status: models.ReportStatusQueued},
	}}
	svc := NewAttendanceService(&stubAttendanceRepo{}, reports, nil, nil, nil, nil, zap.NewNop())

	other := &models.Viewer{ID: "stu-2", Role: models.RoleStudent}
	_, err := svc.ReportStatus(context.Background(), other, "job-1")
	require.Error(t, err)

	_, err = svc.ReportStatus(context.Background(), adminViewer(), "job-1")
	require.NoError(t, err)
}
