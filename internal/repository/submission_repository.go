package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classdesk/classdesk-api/internal/models"
)

const submissionColumns = `id, assignment_id, classroom_id, student_id, student_email, student_name,
	filename, artifact_path, extracted_text, submitted_at`

// SubmissionRepository handles submission persistence.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Upsert writes the submission record, replacing any earlier attempt by the
// same student for the same assignment.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions
	(id, assignment_id, classroom_id, student_id, student_email, student_name, filename, artifact_path, extracted_text, submitted_at)
	VALUES (:id, :assignment_id, :classroom_id, :student_id, :student_email, :student_name, :filename, :artifact_path, :extracted_text, :submitted_at)
	ON CONFLICT (assignment_id, student_id) DO UPDATE
	SET filename = EXCLUDED.filename,
	    artifact_path = EXCLUDED.artifact_path,
	    extracted_text = EXCLUDED.extracted_text,
	    submitted_at = EXCLUDED.submitted_at`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// Exists reports whether the student already submitted for the assignment.
func (r *SubmissionRepository) Exists(ctx context.Context, assignmentID, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM submissions WHERE assignment_id = $1 AND student_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, assignmentID, studentID); err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

// GetByAssignmentAndStudent retrieves the student's submission for an assignment.
func (r *SubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE assignment_id = $1 AND student_id = $2`, submissionColumns)
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, assignmentID, studentID); err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByAssignment returns all submissions for an assignment, newest first.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE assignment_id = $1 ORDER BY submitted_at DESC`, submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListAssignmentIDsWithSubmission returns, from the given assignment IDs, the
// ones the student has already submitted for. One query replaces a per-assignment
// existence check.
func (r *SubmissionRepository) ListAssignmentIDsWithSubmission(ctx context.Context, assignmentIDs []string, studentID string) ([]string, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT assignment_id FROM submissions WHERE student_id = ? AND assignment_id IN (?)`, studentID, assignmentIDs)
	if err != nil {
		return nil, fmt.Errorf("build submitted-set query: %w", err)
	}
	query = r.db.Rebind(query)
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list submitted assignments: %w", err)
	}
	return ids, nil
}
