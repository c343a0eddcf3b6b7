package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/pkg/config"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/export"
	"github.com/classdesk/classdesk-api/pkg/extract"
)

type submissionAssignmentStore interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
}

type submissionClassroomStore interface {
	GetByID(ctx context.Context, id string) (*models.Classroom, error)
}

type submissionStore interface {
	Upsert(ctx context.Context, submission *models.Submission) error
	Exists(ctx context.Context, assignmentID, studentID string) (bool, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
}

type textExtractor interface {
	ExtractText(ctx context.Context, filename string, pdf []byte) (string, error)
}

type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
	Open(filename string) (*os.File, error)
}

type pageComposer interface {
	Compose(pages [][]byte) ([]byte, error)
}

type downloadSigner interface {
	Generate(submissionID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (submissionID, relPath string, expiresAt time.Time, err error)
}

// SubmissionService runs the submission pipeline: gate the attempt, acquire
// the PDF, extract its text, persist the artifact, then write the record.
// A record is never written without its artifact already stored.
type SubmissionService struct {
	assignments submissionAssignmentStore
	classrooms  submissionClassroomStore
	submissions submissionStore
	extractor   textExtractor
	storage     artifactStore
	composer    pageComposer
	signer      downloadSigner
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         config.SubmissionsConfig
	now         func() time.Time
}

// NewSubmissionService constructs the service.
func NewSubmissionService(
	assignments submissionAssignmentStore,
	classrooms submissionClassroomStore,
	submissions submissionStore,
	extractor textExtractor,
	storage artifactStore,
	composer pageComposer,
	signer downloadSigner,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.SubmissionsConfig,
) *SubmissionService {
	return &SubmissionService{
		assignments: assignments,
		classrooms:  classrooms,
		submissions: submissions,
		extractor:   extractor,
		storage:     storage,
		composer:    composer,
		signer:      signer,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SubmitUpload runs the pipeline for an already-assembled PDF.
func (s *SubmissionService) SubmitUpload(ctx context.Context, actor *models.JWTClaims, assignmentID, filename string, pdf []byte) (*dto.SubmissionReceipt, error) {
	if len(pdf) == 0 {
		s.recordOutcome("acquisition_failed")
		return nil, appErrors.ErrAcquisition
	}
	if s.cfg.MaxFileSizeBytes > 0 && int64(len(pdf)) > s.cfg.MaxFileSizeBytes {
		s.recordOutcome("acquisition_failed")
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	return s.submit(ctx, actor, assignmentID, filename, pdf)
}

// SubmitScan composes captured page images into a PDF and runs the pipeline
// on the result.
func (s *SubmissionService) SubmitScan(ctx context.Context, actor *models.JWTClaims, assignmentID string, pages [][]byte) (*dto.SubmissionReceipt, error) {
	start := s.now()
	pdf, err := s.composer.Compose(pages)
	s.observeStage("compose", start)
	if err != nil {
		s.recordOutcome("acquisition_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrAcquisition.Code, appErrors.ErrAcquisition.Status, "could not assemble scanned pages")
	}
	filename := fmt.Sprintf("scan_%s.pdf", s.now().UTC().Format("20060102T150405"))
	return s.submit(ctx, actor, assignmentID, filename, pdf)
}

func (s *SubmissionService) submit(ctx context.Context, actor *models.JWTClaims, assignmentID, filename string, pdf []byte) (*dto.SubmissionReceipt, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	classroom, err := s.classrooms.GetByID(ctx, assignment.ClassroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	hasSubmitted, err := s.submissions.Exists(ctx, assignmentID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission state")
	}

	state := EvaluateGate(GateInput{
		DueAt:        assignment.DueAt,
		Now:          s.now(),
		IsOwner:      classroom.CreatedBy == actor.UserID,
		HasSubmitted: hasSubmitted,
	})
	if !GateAllowsUpload(state) {
		s.recordOutcome("gate_rejected")
		switch state {
		case models.SubmissionStateSubmitted:
			return nil, appErrors.ErrAlreadySubmitted
		case models.SubmissionStateReview:
			return nil, appErrors.Clone(appErrors.ErrForbidden, "classroom owners review submissions, they do not submit")
		default:
			return nil, appErrors.ErrGateClosed
		}
	}

	extractStart := s.now()
	text, err := s.extractor.ExtractText(ctx, filename, pdf)
	s.observeStage("extract", extractStart)
	if err != nil {
		if errors.Is(err, extract.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			s.recordOutcome("processing_timeout")
			return nil, appErrors.Wrap(err, appErrors.ErrProcessingTimeout.Code, appErrors.ErrProcessingTimeout.Status, appErrors.ErrProcessingTimeout.Message)
		}
		s.recordOutcome("processing_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrProcessing.Code, appErrors.ErrProcessing.Status, appErrors.ErrProcessing.Message)
	}

	artifactPath := ArtifactPath(classroom.ID, assignmentID, actor.UserID, filename)
	storeStart := s.now()
	if _, err := s.storage.Save(artifactPath, pdf); err != nil {
		s.observeStage("store", storeStart)
		s.recordOutcome("storage_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUpload.Code, appErrors.ErrStorageUpload.Status, appErrors.ErrStorageUpload.Message)
	}
	s.observeStage("store", storeStart)

	submission := &models.Submission{
		AssignmentID:  assignmentID,
		ClassroomID:   classroom.ID,
		StudentID:     actor.UserID,
		StudentEmail:  actor.Email,
		StudentName:   actor.FullName,
		Filename:      filename,
		ArtifactPath:  artifactPath,
		ExtractedText: text,
		SubmittedAt:   s.now().UTC(),
	}
	if err := s.submissions.Upsert(ctx, submission); err != nil {
		// the record failed, so the stored artifact must not outlive it
		if delErr := s.storage.Delete(artifactPath); delErr != nil {
			s.logger.Warn("orphaned artifact cleanup failed",
				zap.String("path", artifactPath), zap.Error(delErr))
		}
		s.recordOutcome("record_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrRecordWrite.Code, appErrors.ErrRecordWrite.Status, appErrors.ErrRecordWrite.Message)
	}

	s.recordOutcome("completed")
	s.logger.Info("submission recorded",
		zap.String("submissionId", submission.ID),
		zap.String("assignmentId", assignmentID),
		zap.String("studentId", actor.UserID))

	return &dto.SubmissionReceipt{
		SubmissionID: submission.ID,
		AssignmentID: assignmentID,
		Filename:     filename,
		SubmittedAt:  submission.SubmittedAt,
	}, nil
}

// ListForReview returns every submission under an assignment. Only the
// classroom owner may call it.
func (s *SubmissionService) ListForReview(ctx context.Context, actor *models.JWTClaims, assignmentID string) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	classroom, err := s.classrooms.GetByID(ctx, assignment.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return s.withDownloadURLs(submissions), nil
}

// ExportReview renders the assignment's submission roster as CSV or PDF.
// Access control follows ListForReview: only the classroom owner may export.
func (s *SubmissionService) ExportReview(ctx context.Context, actor *models.JWTClaims, assignmentID, format string) (*dto.ExportResult, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	submissions, err := s.ListForReview(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   assignment.Title,
		Columns: []string{"Student", "Email", "Filename", "Submitted At"},
	}
	for _, sub := range submissions {
		table.Rows = append(table.Rows, []string{
			sub.StudentName,
			sub.StudentEmail,
			sub.Filename,
			sub.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}

	switch format {
	case "csv":
		data, err := export.CSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &dto.ExportResult{
			Data:        data,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("submissions_%s.csv", assignmentID),
		}, nil
	case "pdf":
		data, err := export.PDF(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &dto.ExportResult{
			Data:        data,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("submissions_%s.pdf", assignmentID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// GetOwn returns the caller's submission for an assignment, if any.
func (s *SubmissionService) GetOwn(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no submission on file")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	resp := s.withDownloadURLs([]models.Submission{*submission})
	return &resp[0], nil
}

// OpenArtifact resolves a signed download token to the stored PDF.
func (s *SubmissionService) OpenArtifact(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "artifact not found")
	}
	return file, path.Base(relPath), nil
}

func (s *SubmissionService) withDownloadURLs(submissions []models.Submission) []dto.SubmissionResponse {
	out := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		resp := dto.SubmissionResponse{Submission: sub}
		if s.signer != nil && sub.ArtifactPath != "" {
			if token, _, err := s.signer.Generate(sub.ID, sub.ArtifactPath); err == nil {
				resp.DownloadURL = "/api/v1/submissions/artifacts/" + token
			} else {
				s.logger.Warn("failed to sign download url",
					zap.String("submissionId", sub.ID), zap.Error(err))
			}
		}
		out = append(out, resp)
	}
	return out
}

func (s *SubmissionService) observeStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObservePipelineStage(stage, s.now().Sub(start))
	}
}

func (s *SubmissionService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPipelineOutcome(outcome)
	}
}

// ArtifactPath builds the namespaced storage path for one submission's PDF.
func ArtifactPath(classroomID, assignmentID, studentID, filename string) string {
	return path.Join("submissions", classroomID, assignmentID, fmt.Sprintf("%s_%s", studentID, filename))
}
