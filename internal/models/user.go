package models

import (
	"fmt"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// User represents a portal account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   string     `db:"department" json:"department"`
	Year         string     `db:"year" json:"year"`
	Section      string     `db:"section" json:"section"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Viewer is the authenticated actor for whom visibility and permissions
// are computed. A nil *Viewer means "no session".
type Viewer struct {
	ID         string   `json:"id"`
	FullName   string   `json:"full_name"`
	Role       UserRole `json:"role"`
	Department string   `json:"department"`
	Year       string   `json:"year"`
	Section    string   `json:"section"`
}

// ClassID returns the composite class identifier used to scope assignment
// and notice visibility, e.g. "CSE-2024-A".
func (v *Viewer) ClassID() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", v.Department, v.Year, v.Section)
}

// ViewerFromUser projects a stored user onto the viewer shape.
func ViewerFromUser(u *User) *Viewer {
	if u == nil {
		return nil
	}
	return &Viewer{
		ID:         u.ID,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
		Year:       u.Year,
		Section:    u.Section,
	}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
