package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/pkg/config"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
	"github.com/classdesk/classdesk-api/pkg/jobs"
	"github.com/classdesk/classdesk-api/pkg/plagiarism"
)

type memoryCacheRepo struct {
	values map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.values = make(map[string][]byte)
	return nil
}

type stubChecker struct {
	matches []plagiarism.Match
	err     error
	docs    []plagiarism.Document
}

func (s *stubChecker) Check(_ context.Context, docs []plagiarism.Document) ([]plagiarism.Match, error) {
	s.docs = docs
	return s.matches, s.err
}

type stubSubmissionReader struct {
	submissions []models.Submission
}

func (s *stubSubmissionReader) ListByAssignment(_ context.Context, _ string) ([]models.Submission, error) {
	return s.submissions, nil
}

func allowAll(_ context.Context, _ *models.JWTClaims, _ string) error { return nil }

func newAnalysisFixture(checker *stubChecker, submissions []models.Submission) *AnalysisService {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Hour, zap.NewNop(), true)
	return NewAnalysisService(
		&stubSubmissionReader{submissions: submissions},
		checker,
		cache,
		allowAll,
		zap.NewNop(),
		config.PlagiarismConfig{Enabled: true, CacheTTL: time.Hour},
	)
}

func TestAnalysisRunCompletes(t *testing.T) {
	checker := &stubChecker{matches: []plagiarism.Match{{Email: "a@x.com", With: "b@x.com", Percentage: 87.5, Status: "FLAGGED"}}}
	svc := newAnalysisFixture(checker, []models.Submission{
		{StudentEmail: "a@x.com", ExtractedText: "text a"},
		{StudentEmail: "b@x.com", ExtractedText: "text b"},
		{StudentEmail: "c@x.com"},
	})

	report, err := svc.run(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusCompleted, report.Status)
	require.Len(t, report.Matches, 1)
	assert.Equal(t, 87.5, report.Matches[0].Percentage)

	// submissions without extracted text are left out of the check
	require.Len(t, checker.docs, 2)
}

func TestAnalysisJobCachesFailure(t *testing.T) {
	checker := &stubChecker{err: errors.New("service down")}
	svc := newAnalysisFixture(checker, []models.Submission{
		{StudentEmail: "a@x.com", ExtractedText: "text"},
		{StudentEmail: "b@x.com", ExtractedText: "text"},
	})

	owner := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := svc.Trigger(context.Background(), owner, "a1")
	require.NoError(t, err)

	pending, err := svc.Report(context.Background(), owner, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusPending, pending.Status)

	jobErr := svc.handleJob(context.Background(), jobs.Job{ID: "j1", Type: "similarity-analysis", Payload: "a1"})
	require.Error(t, jobErr)

	failed, err := svc.Report(context.Background(), owner, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "service down")
}

func TestAnalysisReportMissing(t *testing.T) {
	svc := newAnalysisFixture(&stubChecker{}, nil)

	owner := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := svc.Report(context.Background(), owner, "never-ran")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnalysisDisabled(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Hour, zap.NewNop(), true)
	svc := NewAnalysisService(&stubSubmissionReader{}, &stubChecker{}, cache, allowAll, zap.NewNop(), config.PlagiarismConfig{Enabled: false})

	owner := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	_, err := svc.Trigger(context.Background(), owner, "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
