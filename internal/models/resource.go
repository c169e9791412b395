package models

import "time"

// ResourceType classifies an uploaded study resource.
type ResourceType string

const (
	ResourceTypePDF   ResourceType = "PDF"
	ResourceTypePPT   ResourceType = "PPT"
	ResourceTypeDoc   ResourceType = "DOC"
	ResourceTypeVideo ResourceType = "VIDEO"
	ResourceTypeImage ResourceType = "IMAGE"
	ResourceTypeOther ResourceType = "OTHER"
)

// Resource represents a shared study resource row. Downloads and likes are
// persisted monotonic counters; the per-viewer favorited flag is session
// local and never written back to the database.
type Resource struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	Type        ResourceType `db:"type" json:"type"`
	Subject     string       `db:"subject" json:"subject"`
	UploadedBy  string       `db:"uploaded_by" json:"uploaded_by"`
	UploaderID  string       `db:"uploader_id" json:"uploader_id"`
	Size        string       `db:"size" json:"size"`
	Downloads   int          `db:"downloads" json:"downloads"`
	Likes       int          `db:"likes" json:"likes"`
	Tags        []string     `db:"-" json:"tags"`
	Favorited   bool         `db:"-" json:"favorited"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
