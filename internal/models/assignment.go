package models

import (
	"regexp"
	"time"
)

// Assignment represents a class assignment row. An empty ClassTargets slice
// means the assignment is visible to every class.
type Assignment struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Subject      string    `db:"subject" json:"subject"`
	DueDate      time.Time `db:"due_date" json:"due_date"`
	Author       string    `db:"author" json:"author"`
	AuthorID     string    `db:"author_id" json:"author_id"`
	AuthorRole   UserRole  `db:"author_role" json:"author_role"`
	Attachments  []string  `db:"-" json:"attachments"`
	ClassTargets []string  `db:"-" json:"class_targets"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// classTargetPattern matches the {department}-{year}-{section} shape,
// e.g. "CSE-2024-A".
var classTargetPattern = regexp.MustCompile(`^[A-Za-z]+-[0-9]{4}-[A-Za-z0-9]+$`)

// ValidClassTarget reports whether the identifier is well formed.
func ValidClassTarget(id string) bool {
	return classTargetPattern.MatchString(id)
}
