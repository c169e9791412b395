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

// NoticeRepository provides persistence for notices.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository creates the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

type noticeRow struct {
	models.Notice
	RowAttachments pq.StringArray `db:"attachments"`
}

func (r noticeRow) toModel() models.Notice {
	notice := r.Notice
	notice.Attachments = append([]string(nil), r.RowAttachments...)
	return notice
}

const noticeColumns = `id, title, content, author, author_id, department, subject, category, pinned, pinned_until, attachments, created_at, updated_at`

// List returns all notices ordered by creation time descending.
func (r *NoticeRepository) List(ctx context.Context) ([]models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices ORDER BY created_at DESC`, noticeColumns)
	var rows []noticeRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	notices := make([]models.Notice, 0, len(rows))
	for _, row := range rows {
		notices = append(notices, row.toModel())
	}
	return notices, nil
}

// GetByID returns a notice by identifier.
func (r *NoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE id = $1`, noticeColumns)
	var row noticeRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	notice := row.toModel()
	return &notice, nil
}

// Create inserts a new notice and fills in server-assigned fields.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = now
	}
	notice.UpdatedAt = now
	const query = `INSERT INTO notices (id, title, content, author, author_id, department, subject, category, pinned, pinned_until, attachments, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := r.db.ExecContext(ctx, query,
		notice.ID, notice.Title, notice.Content, notice.Author, notice.AuthorID,
		notice.Department, notice.Subject, notice.Category,
		notice.Pinned, notice.PinnedUntil, pq.Array(notice.Attachments),
		notice.CreatedAt, notice.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create notice: %w", err)
	}
	return nil
}

// UpdatePinState persists a pin transition. The tagged PinState value keeps
// the pinned/pinned_until columns correlated.
func (r *NoticeRepository) UpdatePinState(ctx context.Context, id string, state models.PinState) error {
	const query = `UPDATE notices SET pinned = $2, pinned_until = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state.Pinned(), state.Until(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update notice pin state: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update notice pin state: notice %s not found", id)
	}
	return nil
}

// Delete removes a notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notices WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}
