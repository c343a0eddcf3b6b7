package models

import "time"

// Submission records one student's response to one assignment. The
// (assignment_id, student_id) pair is unique; resubmission overwrites the
// prior row. The set of submission rows under an assignment is the canonical
// answer to "has this user submitted" — there is no separate flag.
type Submission struct {
	ID            string    `db:"id" json:"id"`
	AssignmentID  string    `db:"assignment_id" json:"assignment_id"`
	ClassroomID   string    `db:"classroom_id" json:"classroom_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	StudentEmail  string    `db:"student_email" json:"student_email"`
	StudentName   string    `db:"student_name" json:"student_name"`
	Filename      string    `db:"filename" json:"filename"`
	ArtifactPath  string    `db:"artifact_path" json:"-"`
	ExtractedText string    `db:"extracted_text" json:"extracted_text,omitempty"`
	SubmittedAt   time.Time `db:"submitted_at" json:"submitted_at"`
}
