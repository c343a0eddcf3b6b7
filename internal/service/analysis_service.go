package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/pkg/config"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/jobs"
	"github.com/classdesk/classdesk-api/pkg/plagiarism"
)

type similarityChecker interface {
	Check(ctx context.Context, docs []plagiarism.Document) ([]plagiarism.Match, error)
}

type submissionReader interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
}

// AnalysisService runs similarity checks over an assignment's submissions.
// Runs execute on a background queue; results live only in the cache and
// expire with it. Triggering is restricted to the classroom owner.
type AnalysisService struct {
	submissions submissionReader
	checker     similarityChecker
	cache       *CacheService
	queue       *jobs.Queue
	logger      *zap.Logger
	cfg         config.PlagiarismConfig
	authorize   func(ctx context.Context, actor *models.JWTClaims, assignmentID string) error
}

// NewAnalysisService constructs the service. The returned service owns its
// queue; call Start before use and Stop on shutdown.
func NewAnalysisService(
	submissions submissionReader,
	checker similarityChecker,
	cache *CacheService,
	authorize func(ctx context.Context, actor *models.JWTClaims, assignmentID string) error,
	logger *zap.Logger,
	cfg config.PlagiarismConfig,
) *AnalysisService {
	s := &AnalysisService{
		submissions: submissions,
		checker:     checker,
		cache:       cache,
		logger:      logger,
		cfg:         cfg,
		authorize:   authorize,
	}
	s.queue = jobs.NewQueue("similarity-analysis", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *AnalysisService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains and stops the background workers.
func (s *AnalysisService) Stop() {
	s.queue.Stop()
}

// Trigger enqueues a similarity run for the assignment and marks the report
// pending. It answers immediately; Report serves the eventual outcome.
func (s *AnalysisService) Trigger(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*models.AnalysisReport, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "similarity analysis is disabled")
	}
	if err := s.authorize(ctx, actor, assignmentID); err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		AssignmentID: assignmentID,
		Status:       models.AnalysisStatusPending,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, s.cacheKey(assignmentID), report, s.cfg.CacheTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record pending analysis")
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "similarity-analysis",
		Payload: assignmentID,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue analysis")
	}

	s.logger.Info("similarity analysis queued",
		zap.String("assignmentId", assignmentID),
		zap.String("triggeredBy", actor.UserID))
	return report, nil
}

// Report returns the cached report for an assignment, if one exists.
func (s *AnalysisService) Report(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*models.AnalysisReport, error) {
	if err := s.authorize(ctx, actor, assignmentID); err != nil {
		return nil, err
	}
	var report models.AnalysisReport
	hit, err := s.cache.Get(ctx, s.cacheKey(assignmentID), &report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read analysis report")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no analysis report; trigger one first")
	}
	return &report, nil
}

func (s *AnalysisService) handleJob(ctx context.Context, job jobs.Job) error {
	assignmentID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	report, err := s.run(runCtx, assignmentID)
	if err != nil {
		// persist the failure so the report endpoint stops reading PENDING
		failed := &models.AnalysisReport{
			AssignmentID: assignmentID,
			Status:       models.AnalysisStatusFailed,
			Error:        err.Error(),
			GeneratedAt:  time.Now().UTC(),
		}
		if cacheErr := s.cache.Set(ctx, s.cacheKey(assignmentID), failed, s.cfg.CacheTTL); cacheErr != nil {
			s.logger.Warn("failed to cache failed analysis", zap.Error(cacheErr))
		}
		return err
	}

	if err := s.cache.Set(ctx, s.cacheKey(assignmentID), report, s.cfg.CacheTTL); err != nil {
		return fmt.Errorf("cache analysis report: %w", err)
	}
	return nil
}

func (s *AnalysisService) run(ctx context.Context, assignmentID string) (*models.AnalysisReport, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}

	docs := make([]plagiarism.Document, 0, len(submissions))
	for _, sub := range submissions {
		if sub.ExtractedText == "" {
			continue
		}
		docs = append(docs, plagiarism.Document{Email: sub.StudentEmail, Text: sub.ExtractedText})
	}

	matches, err := s.checker.Check(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("similarity check: %w", err)
	}

	out := make([]models.SimilarityMatch, len(matches))
	for i, m := range matches {
		out[i] = models.SimilarityMatch{Email: m.Email, With: m.With, Percentage: m.Percentage, Status: m.Status}
	}
	return &models.AnalysisReport{
		AssignmentID: assignmentID,
		Status:       models.AnalysisStatusCompleted,
		Matches:      out,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (s *AnalysisService) cacheKey(assignmentID string) string {
	return "analysis:" + assignmentID
}
