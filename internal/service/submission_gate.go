package service

import (
	"time"

	"github.com/classdesk/classdesk-api/internal/models"
)

// GateInput carries everything the gate needs to decide one assignment's
// state for one caller. All inputs are resolved by the caller; the gate
// itself never touches the clock or the database.
type GateInput struct {
	DueAt        *time.Time
	Now          time.Time
	IsOwner      bool
	HasSubmitted bool
}

// EvaluateGate returns the submission state for one assignment and one
// caller. Precedence, highest first:
//
//  1. an existing submission always reads SUBMITTED
//  2. the classroom owner reads REVIEW
//  3. a due timestamp at or before now reads CLOSED
//  4. otherwise OPEN; a nil due timestamp never closes
func EvaluateGate(in GateInput) models.SubmissionState {
	if in.HasSubmitted {
		return models.SubmissionStateSubmitted
	}
	if in.IsOwner {
		return models.SubmissionStateReview
	}
	if in.DueAt != nil && !in.Now.Before(*in.DueAt) {
		return models.SubmissionStateClosed
	}
	return models.SubmissionStateOpen
}

// GateAllowsUpload reports whether the pipeline may accept an upload in the
// given state. Only OPEN admits new artifacts.
func GateAllowsUpload(state models.SubmissionState) bool {
	return state == models.SubmissionStateOpen
}
