package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

type stubAssignmentRepo struct {
	created *models.Assignment
	byID    *models.Assignment
	list    []models.Assignment
}

func (s *stubAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = "a1"
	s.created = assignment
	return nil
}

func (s *stubAssignmentRepo) GetByID(_ context.Context, _ string) (*models.Assignment, error) {
	if s.byID == nil {
		return nil, sql.ErrNoRows
	}
	return s.byID, nil
}

func (s *stubAssignmentRepo) ListByClassroom(_ context.Context, _ string) ([]models.Assignment, error) {
	return s.list, nil
}

type stubSubmittedSet struct {
	submitted  []string
	batchCalls int
	lastIDs    []string
}

func (s *stubSubmittedSet) Exists(_ context.Context, assignmentID, _ string) (bool, error) {
	for _, id := range s.submitted {
		if id == assignmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubSubmittedSet) ListAssignmentIDsWithSubmission(_ context.Context, assignmentIDs []string, _ string) ([]string, error) {
	s.batchCalls++
	s.lastIDs = assignmentIDs
	return s.submitted, nil
}

type stubClassroomAccess struct {
	classroom *models.Classroom
	err       error
}

func (s *stubClassroomAccess) Get(_ context.Context, _ *models.JWTClaims, _ string) (*models.Classroom, error) {
	return s.classroom, s.err
}

func TestCreateAssignmentOwnerOnly(t *testing.T) {
	access := &stubClassroomAccess{classroom: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	repo := &stubAssignmentRepo{}
	svc := NewAssignmentService(repo, &stubSubmittedSet{}, access, zap.NewNop())

	due := time.Now().Add(24 * time.Hour)
	assignment, err := svc.Create(context.Background(), teacherClaims(), "c1", dto.CreateAssignmentRequest{Title: "Essay", DueAt: &due})
	require.NoError(t, err)
	assert.Equal(t, "a1", assignment.ID)

	access.classroom = &models.Classroom{ID: "c1", CreatedBy: "someone-else"}
	_, err = svc.Create(context.Background(), teacherClaims(), "c1", dto.CreateAssignmentRequest{Title: "Essay"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreateAssignmentRejectsPastDue(t *testing.T) {
	access := &stubClassroomAccess{classroom: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	svc := NewAssignmentService(&stubAssignmentRepo{}, &stubSubmittedSet{}, access, zap.NewNop())

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), teacherClaims(), "c1", dto.CreateAssignmentRequest{Title: "Essay", DueAt: &past})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestListByClassroomStates(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	pastDue := now.Add(-time.Hour)
	futureDue := now.Add(time.Hour)

	access := &stubClassroomAccess{classroom: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	repo := &stubAssignmentRepo{list: []models.Assignment{
		{ID: "a1", ClassroomID: "c1", DueAt: &futureDue},
		{ID: "a2", ClassroomID: "c1", DueAt: &pastDue},
		{ID: "a3", ClassroomID: "c1"},
		{ID: "a4", ClassroomID: "c1", DueAt: &pastDue},
	}}
	submitted := &stubSubmittedSet{submitted: []string{"a4"}}
	svc := NewAssignmentService(repo, submitted, access, zap.NewNop())
	svc.now = func() time.Time { return now }

	views, err := svc.ListByClassroom(context.Background(), studentClaims(), "c1")
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, models.SubmissionStateOpen, views[0].State)
	assert.Equal(t, models.SubmissionStateClosed, views[1].State)
	assert.Equal(t, models.SubmissionStateOpen, views[2].State)
	assert.Equal(t, models.SubmissionStateSubmitted, views[3].State)

	// one batched lookup covers the whole page
	assert.Equal(t, 1, submitted.batchCalls)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, submitted.lastIDs)
}

func TestListByClassroomOwnerSeesReview(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)

	access := &stubClassroomAccess{classroom: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	repo := &stubAssignmentRepo{list: []models.Assignment{{ID: "a1", ClassroomID: "c1", DueAt: &due}}}
	svc := NewAssignmentService(repo, &stubSubmittedSet{}, access, zap.NewNop())
	svc.now = func() time.Time { return now }

	views, err := svc.ListByClassroom(context.Background(), teacherClaims(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStateReview, views[0].State)
}

func TestGetAssignmentState(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	access := &stubClassroomAccess{classroom: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	repo := &stubAssignmentRepo{byID: &models.Assignment{ID: "a1", ClassroomID: "c1", DueAt: &due}}
	svc := NewAssignmentService(repo, &stubSubmittedSet{}, access, zap.NewNop())
	svc.now = func() time.Time { return now }

	view, err := svc.Get(context.Background(), studentClaims(), "a1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStateClosed, view.State)
}
