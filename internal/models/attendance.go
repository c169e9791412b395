package models

import "time"

// AttendanceStatus enumerates the possible states of a daily record.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord is a single per-subject daily attendance entry.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Subject   string           `db:"subject" json:"subject"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceSummary aggregates a student's attendance for one subject.
type AttendanceSummary struct {
	Subject    string  `db:"subject" json:"subject"`
	Total      int     `db:"total" json:"total"`
	Present    int     `db:"present" json:"present"`
	Late       int     `db:"late" json:"late"`
	Percentage float64 `db:"-" json:"percentage"`
}

// AttendanceFilter scopes record lookups.
type AttendanceFilter struct {
	StudentID string
	Subject   string
	From      *time.Time
	To        *time.Time
}
