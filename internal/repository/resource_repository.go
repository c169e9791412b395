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

// ResourceRepository provides persistence for study resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

type resourceRow struct {
	models.Resource
	RowTags pq.StringArray `db:"tags"`
}

func (r resourceRow) toModel() models.Resource {
	resource := r.Resource
	resource.Tags = append([]string(nil), r.RowTags...)
	return resource
}

const resourceColumns = `id, title, description, type, subject, uploaded_by, uploader_id, size, downloads, likes, tags, created_at, updated_at`

// List returns all resources ordered by creation time descending.
func (r *ResourceRepository) List(ctx context.Context) ([]models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources ORDER BY created_at DESC`, resourceColumns)
	var rows []resourceRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	resources := make([]models.Resource, 0, len(rows))
	for _, row := range rows {
		resources = append(resources, row.toModel())
	}
	return resources, nil
}

// Create inserts a new resource with zeroed counters.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}
	resource.UpdatedAt = now
	const query = `INSERT INTO resources (id, title, description, type, subject, uploaded_by, uploader_id, size, downloads, likes, tags, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := r.db.ExecContext(ctx, query,
		resource.ID, resource.Title, resource.Description, resource.Type, resource.Subject,
		resource.UploadedBy, resource.UploaderID, resource.Size,
		resource.Downloads, resource.Likes, pq.Array(resource.Tags),
		resource.CreatedAt, resource.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter and returns the new value.
func (r *ResourceRepository) IncrementDownloads(ctx context.Context, id string) (int, error) {
	const query = `UPDATE resources SET downloads = downloads + 1, updated_at = $2 WHERE id = $1 RETURNING downloads`
	var downloads int
	if err := r.db.GetContext(ctx, &downloads, query, id, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("increment downloads: %w", err)
	}
	return downloads, nil
}

// IncrementLikes bumps the like counter and returns the new value.
func (r *ResourceRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	const query = `UPDATE resources SET likes = likes + 1, updated_at = $2 WHERE id = $1 RETURNING likes`
	var likes int
	if err := r.db.GetContext(ctx, &likes, query, id, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	return likes, nil
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM resources WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
