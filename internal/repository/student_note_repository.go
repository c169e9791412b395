package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/portal-api/internal/models"
)

// StudentNoteRepository provides persistence for faculty notes on students.
type StudentNoteRepository struct {
	db *sqlx.DB
}

// NewStudentNoteRepository creates the repository.
func NewStudentNoteRepository(db *sqlx.DB) *StudentNoteRepository {
	return &StudentNoteRepository{db: db}
}

// List returns all notes ordered by creation time descending.
func (r *StudentNoteRepository) List(ctx context.Context) ([]models.StudentNote, error) {
	const query = `SELECT id, student_id, note, author, author_id, created_at FROM student_notes ORDER BY created_at DESC`
	var notes []models.StudentNote
	if err := r.db.SelectContext(ctx, &notes, query); err != nil {
		return nil, fmt.Errorf("list student notes: %w", err)
	}
	return notes, nil
}

// ListByStudent returns notes for one student, optionally narrowed to a
// single author.
func (r *StudentNoteRepository) ListByStudent(ctx context.Context, filter models.StudentNoteFilter) ([]models.StudentNote, error) {
	query := `SELECT id, student_id, note, author, author_id, created_at FROM student_notes WHERE student_id = $1`
	args := []interface{}{filter.StudentID}
	if filter.AuthorID != "" {
		query += " AND author_id = $2"
		args = append(args, filter.AuthorID)
	}
	query += " ORDER BY created_at DESC"

	var notes []models.StudentNote
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list notes for student %s: %w", filter.StudentID, err)
	}
	return notes, nil
}

// Create appends a new note. Notes are never updated or deleted.
func (r *StudentNoteRepository) Create(ctx context.Context, note *models.StudentNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_notes (id, student_id, note, author, author_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		note.ID, note.StudentID, note.Note, note.Author, note.AuthorID, note.CreatedAt,
	); err != nil {
		return fmt.Errorf("create student note: %w", err)
	}
	return nil
}
