package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/portal-api/internal/models"
)

// ReportRepository persists attendance report jobs so queued exports survive
// a restart.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	const query = `INSERT INTO report_jobs (id, student_id, requested_by, format, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.StudentID, job.RequestedBy, job.Format, job.Status, job.CreatedAt, job.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID fetches one report job.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, student_id, requested_by, format, status, file_path, error_msg, created_at, updated_at
FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("find report job %s: %w", id, err)
	}
	return &job, nil
}

// Update applies a status transition to a report job.
func (r *ReportRepository) Update(ctx context.Context, id string, update models.ReportJobUpdate) error {
	const query = `UPDATE report_jobs SET
status = COALESCE($2, status),
file_path = COALESCE($3, file_path),
error_msg = COALESCE($4, error_msg),
updated_at = $5
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, update.Status, update.FilePath, update.ErrorMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update report job %s: no such job", id)
	}
	return nil
}
