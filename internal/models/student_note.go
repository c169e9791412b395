package models

import "time"

// StudentNote is a faculty-authored note about a student. Notes are append
// only; no edit or delete operation exists.
type StudentNote struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Note      string    `db:"note" json:"note"`
	Author    string    `db:"author" json:"author"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentNoteFilter narrows note lookups to a student and optionally to a
// single author.
type StudentNoteFilter struct {
	StudentID string
	AuthorID  string
}
