package dto

import (
	"time"

	"github.com/classdesk/classdesk-api/internal/models"
)

// SubmissionResponse is the submission record returned to clients, enriched
// with a signed artifact download URL when one is available.
type SubmissionResponse struct {
	models.Submission
	DownloadURL string `json:"download_url,omitempty"`
}

// ExportResult carries a rendered roster export and the headers needed to
// serve it as a download.
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// SubmissionReceipt confirms a completed pipeline run.
type SubmissionReceipt struct {
	SubmissionID string    `json:"submission_id"`
	AssignmentID string    `json:"assignment_id"`
	Filename     string    `json:"filename"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
