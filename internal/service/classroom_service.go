package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

// codeAlphabet omits characters that read ambiguously on a whiteboard.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

type classroomStore interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	GetByID(ctx context.Context, id string) (*models.Classroom, error)
	GetByCode(ctx context.Context, code string) (*models.Classroom, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.Classroom, error)
	ListByCodes(ctx context.Context, codes []string) ([]models.Classroom, error)
}

type classroomUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmails(ctx context.Context, emails []string) ([]models.User, error)
	AppendJoinedClassroom(ctx context.Context, userID, code string) error
}

type inviteNotifier interface {
	NotifyInvites(ctx context.Context, classroom *models.Classroom, emails []string)
}

// ClassroomService manages classroom ownership and membership. Teachers own
// classrooms; students hold join codes in their joined set.
type ClassroomService struct {
	classrooms classroomStore
	users      classroomUserStore
	notifier   inviteNotifier
	logger     *zap.Logger
}

// NewClassroomService constructs the service.
func NewClassroomService(classrooms classroomStore, users classroomUserStore, notifier inviteNotifier, logger *zap.Logger) *ClassroomService {
	return &ClassroomService{classrooms: classrooms, users: users, notifier: notifier, logger: logger}
}

// Create makes a new classroom owned by the calling teacher, generates its
// join code, and sends invitation notifications to any listed emails.
func (s *ClassroomService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if actor.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers create classrooms")
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate classroom code")
	}

	classroom := &models.Classroom{
		Name:          req.Name,
		Description:   req.Description,
		Code:          code,
		CreatedBy:     actor.UserID,
		CreatorName:   actor.FullName,
		InvitedEmails: req.InviteEmails,
	}
	if err := s.classrooms.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}

	if len(req.InviteEmails) > 0 && s.notifier != nil {
		s.notifier.NotifyInvites(ctx, classroom, s.registeredEmails(ctx, req.InviteEmails))
	}

	s.logger.Info("classroom created",
		zap.String("classroomId", classroom.ID),
		zap.String("code", classroom.Code),
		zap.String("createdBy", actor.UserID))
	return classroom, nil
}

// Join adds the classroom's code to the calling student's joined set.
// Joining a classroom the student already belongs to is a no-op.
func (s *ClassroomService) Join(ctx context.Context, actor *models.JWTClaims, code string) (*models.Classroom, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students join classrooms")
	}

	classroom, err := s.classrooms.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no classroom with that code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up classroom")
	}

	if err := s.users.AppendJoinedClassroom(ctx, actor.UserID, classroom.Code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join classroom")
	}
	return classroom, nil
}

// Invite sends invitation notifications for an existing classroom. Only the
// owner may invite.
func (s *ClassroomService) Invite(ctx context.Context, actor *models.JWTClaims, classroomID string, emails []string) error {
	classroom, err := s.authorizedClassroom(ctx, actor, classroomID)
	if err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyInvites(ctx, classroom, s.registeredEmails(ctx, emails))
	}
	return nil
}

// registeredEmails narrows an invite list to emails with an account, so
// notifications never target addresses that cannot receive them. On lookup
// failure the full list goes through; the notifier tolerates unknown
// recipients.
func (s *ClassroomService) registeredEmails(ctx context.Context, emails []string) []string {
	users, err := s.users.FindByEmails(ctx, emails)
	if err != nil {
		s.logger.Warn("failed to resolve invite emails", zap.Error(err))
		return emails
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.Email] = true
	}
	registered := make([]string, 0, len(emails))
	for _, email := range emails {
		if known[email] {
			registered = append(registered, email)
		} else {
			s.logger.Debug("skipping invite for unregistered email", zap.String("email", email))
		}
	}
	return registered
}

// ListForActor returns the classrooms visible to the caller: owned ones for
// teachers, joined ones for students.
func (s *ClassroomService) ListForActor(ctx context.Context, actor *models.JWTClaims) ([]models.Classroom, error) {
	if actor.Role == models.RoleTeacher {
		classrooms, err := s.classrooms.ListByCreator(ctx, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
		}
		return classrooms, nil
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if len(user.JoinedClassrooms) == 0 {
		return []models.Classroom{}, nil
	}
	classrooms, err := s.classrooms.ListByCodes(ctx, user.JoinedClassrooms)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, nil
}

// Get returns one classroom if the caller owns it or has joined it.
func (s *ClassroomService) Get(ctx context.Context, actor *models.JWTClaims, classroomID string) (*models.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.CreatedBy == actor.UserID {
		return classroom, nil
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	for _, code := range user.JoinedClassrooms {
		if code == classroom.Code {
			return classroom, nil
		}
	}
	return nil, appErrors.ErrForbidden
}

func (s *ClassroomService) authorizedClassroom(ctx context.Context, actor *models.JWTClaims, classroomID string) (*models.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.CreatedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return classroom, nil
}

func (s *ClassroomService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		raw := make([]byte, codeLength)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		code := make([]byte, codeLength)
		for i, b := range raw {
			code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		exists, err := s.classrooms.CodeExists(ctx, string(code))
		if err != nil {
			return "", err
		}
		if !exists {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("could not find a free classroom code")
}
