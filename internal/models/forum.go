package models

import "time"

// Query represents a forum question. Replies is derived from the number of
// associated answers; Solved holds if and only if some answer is accepted.
type Query struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Author    string    `db:"author" json:"author"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Subject   string    `db:"subject" json:"subject"`
	Likes     int       `db:"likes" json:"likes"`
	LikedBy   []string  `db:"-" json:"liked_by"`
	Solved    bool      `db:"solved" json:"solved"`
	Replies   int       `db:"replies" json:"replies"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LikedByViewer reports whether the given viewer already likes the query.
func (q *Query) LikedByViewer(viewerID string) bool {
	for _, id := range q.LikedBy {
		if id == viewerID {
			return true
		}
	}
	return false
}

// Answer represents a forum reply belonging to a query.
type Answer struct {
	ID         string    `db:"id" json:"id"`
	QueryID    string    `db:"query_id" json:"query_id"`
	Content    string    `db:"content" json:"content"`
	Author     string    `db:"author" json:"author"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorRole UserRole  `db:"author_role" json:"author_role"`
	IsAccepted bool      `db:"is_accepted" json:"is_accepted"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
