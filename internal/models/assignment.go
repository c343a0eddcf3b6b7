package models

import "time"

// SubmissionState is the gate's verdict for one assignment and one caller.
type SubmissionState string

const (
	// SubmissionStateSubmitted wins over every other condition.
	SubmissionStateSubmitted SubmissionState = "SUBMITTED"
	// SubmissionStateOpen means uploads are currently accepted.
	SubmissionStateOpen SubmissionState = "OPEN"
	// SubmissionStateClosed means the due timestamp has passed.
	SubmissionStateClosed SubmissionState = "CLOSED"
	// SubmissionStateReview is what classroom owners see; owners never
	// submit, they review.
	SubmissionStateReview SubmissionState = "REVIEW"
)

// Assignment belongs to exactly one classroom. A nil DueAt means the
// assignment stays open until a submission exists; closure is always
// computed at read time, never persisted.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	ClassroomID string     `db:"classroom_id" json:"classroom_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AssignmentView pairs an assignment with the caller's gate state.
type AssignmentView struct {
	Assignment
	State SubmissionState `json:"state"`
}
