package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]models.Assignment, error)
}

type submittedSetStore interface {
	Exists(ctx context.Context, assignmentID, studentID string) (bool, error)
	ListAssignmentIDsWithSubmission(ctx context.Context, assignmentIDs []string, studentID string) ([]string, error)
}

type classroomAccessor interface {
	Get(ctx context.Context, actor *models.JWTClaims, classroomID string) (*models.Classroom, error)
}

// AssignmentService manages assignments and answers every read with the
// caller's gate state attached. State is computed at read time from the due
// timestamp, the caller's role, and the submitted set; it is never stored.
type AssignmentService struct {
	assignments assignmentStore
	submissions submittedSetStore
	classrooms  classroomAccessor
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the service.
func NewAssignmentService(assignments assignmentStore, submissions submittedSetStore, classrooms classroomAccessor, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		submissions: submissions,
		classrooms:  classrooms,
		logger:      logger,
		now:         time.Now,
	}
}

// Create adds an assignment to a classroom. Only the classroom owner may
// create, and a past due timestamp is rejected.
func (s *AssignmentService) Create(ctx context.Context, actor *models.JWTClaims, classroomID string, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	classroom, err := s.classrooms.Get(ctx, actor, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the classroom owner creates assignments")
	}
	if req.DueAt != nil && !req.DueAt.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due date must be in the future")
	}

	assignment := &models.Assignment{
		ClassroomID: classroom.ID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment created",
		zap.String("assignmentId", assignment.ID),
		zap.String("classroomId", classroom.ID))
	return assignment, nil
}

// ListByClassroom returns the classroom's assignments with the caller's gate
// state on each. The submitted set is resolved with one batched query
// instead of a per-assignment lookup.
func (s *AssignmentService) ListByClassroom(ctx context.Context, actor *models.JWTClaims, classroomID string) ([]models.AssignmentView, error) {
	classroom, err := s.classrooms.Get(ctx, actor, classroomID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.ID
	}
	submitted, err := s.submissions.ListAssignmentIDsWithSubmission(ctx, ids, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve submitted set")
	}
	submittedSet := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		submittedSet[id] = struct{}{}
	}

	now := s.now()
	isOwner := classroom.CreatedBy == actor.UserID
	views := make([]models.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		_, hasSubmitted := submittedSet[a.ID]
		views = append(views, models.AssignmentView{
			Assignment: a,
			State: EvaluateGate(GateInput{
				DueAt:        a.DueAt,
				Now:          now,
				IsOwner:      isOwner,
				HasSubmitted: hasSubmitted,
			}),
		})
	}
	return views, nil
}

// Get returns one assignment with the caller's gate state.
func (s *AssignmentService) Get(ctx context.Context, actor *models.JWTClaims, assignmentID string) (*models.AssignmentView, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	classroom, err := s.classrooms.Get(ctx, actor, assignment.ClassroomID)
	if err != nil {
		return nil, err
	}
	hasSubmitted, err := s.submissions.Exists(ctx, assignment.ID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission state")
	}
	return &models.AssignmentView{
		Assignment: *assignment,
		State: EvaluateGate(GateInput{
			DueAt:        assignment.DueAt,
			Now:          s.now(),
			IsOwner:      classroom.CreatedBy == actor.UserID,
			HasSubmitted: hasSubmitted,
		}),
	}, nil
}
