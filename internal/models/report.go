package models

import "time"

// ReportStatus tracks an attendance report job through its lifecycle.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportFormat selects the export renderer.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "CSV"
	ReportFormatPDF ReportFormat = "PDF"
)

// ReportJob is a queued attendance export request.
type ReportJob struct {
	ID          string       `db:"id" json:"id"`
	StudentID   string       `db:"student_id" json:"student_id"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	Format      ReportFormat `db:"format" json:"format"`
	Status      ReportStatus `db:"status" json:"status"`
	FilePath    *string      `db:"file_path" json:"file_path,omitempty"`
	ErrorMsg    *string      `db:"error_msg" json:"error_msg,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// ReportJobUpdate carries the mutable job fields for status transitions.
type ReportJobUpdate struct {
	Status   *ReportStatus
	FilePath *string
	ErrorMsg *string
}
