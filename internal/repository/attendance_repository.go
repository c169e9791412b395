package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/portal-api/internal/models"
)

// AttendanceRepository reads per-student attendance records. Records are
// written by the institution's attendance capture system, not this API.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListRecords returns attendance entries matching the filter, newest first.
func (r *AttendanceRepository) ListRecords(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	query := `SELECT id, student_id, subject, date, status, created_at FROM attendance_records WHERE student_id = $1`
	args := []interface{}{filter.StudentID}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// Summarize aggregates a student's attendance per subject. Percentages are
// computed by the service layer so LATE weighting stays in one place.
func (r *AttendanceRepository) Summarize(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	const query = `SELECT subject,
COUNT(*) AS total,
COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
COUNT(*) FILTER (WHERE status = 'LATE') AS late
FROM attendance_records WHERE student_id = $1
GROUP BY subject ORDER BY subject`
	var summaries []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &summaries, query, studentID); err != nil {
		return nil, fmt.Errorf("summarize attendance: %w", err)
	}
	return summaries, nil
}
