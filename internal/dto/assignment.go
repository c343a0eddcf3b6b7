package dto

import "time"

// CreateAssignmentRequest defines the payload for creating an assignment.
// DueAt is optional; a missing due date keeps the assignment open until a
// submission exists.
type CreateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}
