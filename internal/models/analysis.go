package models

import "time"

// AnalysisStatus tracks the lifecycle of a background similarity run.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "PENDING"
	AnalysisStatusCompleted AnalysisStatus = "COMPLETED"
	AnalysisStatusFailed    AnalysisStatus = "FAILED"
)

// SimilarityMatch is one pairwise verdict between two submitters.
type SimilarityMatch struct {
	Email      string  `json:"email"`
	With       string  `json:"with"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// AnalysisReport is the cached outcome of a similarity run over one
// assignment's submissions.
type AnalysisReport struct {
	AssignmentID string            `json:"assignment_id"`
	Status       AnalysisStatus    `json:"status"`
	Matches      []SimilarityMatch `json:"matches,omitempty"`
	Error        string            `json:"error,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
