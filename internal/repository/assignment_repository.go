package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushub/portal-api/internal/models"
)

// AssignmentRepository provides persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

type assignmentRow struct {
	models.Assignment
	RowAttachments  pq.StringArray `db:"attachments"`
	RowClassTargets pq.StringArray `db:"class_targets"`
}

func (r assignmentRow) toModel() models.Assignment {
	assignment := r.Assignment
	assignment.Attachments = append([]string(nil), r.RowAttachments...)
	assignment.ClassTargets = append([]string(nil), r.RowClassTargets...)
	return assignment
}

const assignmentColumns = `id, title, description, subject, due_date, author, author_id, author_role, attachments, class_targets, created_at, updated_at`

// List returns all assignments ordered by creation time descending.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments ORDER BY created_at DESC`, assignmentColumns)
	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	assignments := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toModel())
	}
	return assignments, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, description, subject, due_date, author, author_id, author_role, attachments, class_targets, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, query,
		assignment.ID, assignment.Title, assignment.Description, assignment.Subject,
		assignment.DueDate, assignment.Author, assignment.AuthorID, assignment.AuthorRole,
		pq.Array(assignment.Attachments), pq.Array(assignment.ClassTargets),
		assignment.CreatedAt, assignment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
