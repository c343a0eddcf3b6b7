package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles. Role is fixed at sign-up.
type UserRole string

const (
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
// JoinedClassrooms holds classroom join codes for students; teachers own
// classrooms through the classrooms.created_by column instead.
type User struct {
	ID               string         `db:"id" json:"id"`
	Email            string         `db:"email" json:"email"`
	PasswordHash     string         `db:"password_hash" json:"-"`
	FullName         string         `db:"full_name" json:"full_name"`
	Role             UserRole       `db:"role" json:"role"`
	AvatarURL        *string        `db:"avatar_url" json:"avatar_url,omitempty"`
	Active           bool           `db:"active" json:"active"`
	JoinedClassrooms pq.StringArray `db:"joined_classrooms" json:"joined_classrooms"`
	LastLogin        *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
