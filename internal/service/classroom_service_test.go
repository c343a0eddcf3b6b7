package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

type stubClassroomRepo struct {
	created    *models.Classroom
	byCode     *models.Classroom
	byID       *models.Classroom
	codeExists bool
	byCreator  []models.Classroom
	byCodes    []models.Classroom
}

func (s *stubClassroomRepo) Create(_ context.Context, classroom *models.Classroom) error {
	classroom.ID = "c1"
	s.created = classroom
	return nil
}

func (s *stubClassroomRepo) GetByID(_ context.Context, _ string) (*models.Classroom, error) {
	if s.byID == nil {
		return nil, sql.ErrNoRows
	}
	return s.byID, nil
}

func (s *stubClassroomRepo) GetByCode(_ context.Context, _ string) (*models.Classroom, error) {
	if s.byCode == nil {
		return nil, sql.ErrNoRows
	}
	return s.byCode, nil
}

func (s *stubClassroomRepo) CodeExists(_ context.Context, _ string) (bool, error) {
	return s.codeExists, nil
}

func (s *stubClassroomRepo) ListByCreator(_ context.Context, _ string) ([]models.Classroom, error) {
	return s.byCreator, nil
}

func (s *stubClassroomRepo) ListByCodes(_ context.Context, _ []string) ([]models.Classroom, error) {
	return s.byCodes, nil
}

type stubClassroomUsers struct {
	user        *models.User
	knownEmails []string
	emailsErr   error
	joinCalls   int
	joinedCode  string
}

func (s *stubClassroomUsers) FindByID(_ context.Context, _ string) (*models.User, error) {
	return s.user, nil
}

// FindByEmails treats every requested email as registered unless the stub
// carries an explicit known set.
func (s *stubClassroomUsers) FindByEmails(_ context.Context, emails []string) ([]models.User, error) {
	if s.emailsErr != nil {
		return nil, s.emailsErr
	}
	known := s.knownEmails
	if known == nil {
		known = emails
	}
	users := make([]models.User, 0, len(known))
	for _, email := range known {
		users = append(users, models.User{Email: email})
	}
	return users, nil
}

func (s *stubClassroomUsers) AppendJoinedClassroom(_ context.Context, _, code string) error {
	s.joinCalls++
	s.joinedCode = code
	return nil
}

type recordingNotifier struct {
	classroom *models.Classroom
	emails    []string
}

func (r *recordingNotifier) NotifyInvites(_ context.Context, classroom *models.Classroom, emails []string) {
	r.classroom = classroom
	r.emails = emails
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "t1", Email: "teacher@example.com", FullName: "Ms. Woods", Role: models.RoleTeacher}
}

func TestCreateClassroomGeneratesCodeAndInvites(t *testing.T) {
	repo := &stubClassroomRepo{}
	notifier := &recordingNotifier{}
	svc := NewClassroomService(repo, &stubClassroomUsers{}, notifier, zap.NewNop())

	classroom, err := svc.Create(context.Background(), teacherClaims(), dto.CreateClassroomRequest{
		Name:         "Algebra II",
		InviteEmails: []string{"a@example.com"},
	})
	require.NoError(t, err)

	assert.Len(t, classroom.Code, codeLength)
	for _, r := range classroom.Code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected code character %q", r)
	}
	assert.Equal(t, "t1", classroom.CreatedBy)
	assert.Equal(t, []string{"a@example.com"}, notifier.emails)
}

func TestCreateClassroomStudentForbidden(t *testing.T) {
	svc := NewClassroomService(&stubClassroomRepo{}, &stubClassroomUsers{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), studentClaims(), dto.CreateClassroomRequest{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestJoinAppendsCode(t *testing.T) {
	repo := &stubClassroomRepo{byCode: &models.Classroom{ID: "c1", Code: "A1B2C3"}}
	users := &stubClassroomUsers{}
	svc := NewClassroomService(repo, users, nil, zap.NewNop())

	classroom, err := svc.Join(context.Background(), studentClaims(), "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, "c1", classroom.ID)
	assert.Equal(t, 1, users.joinCalls)
	assert.Equal(t, "A1B2C3", users.joinedCode)
}

func TestJoinUnknownCode(t *testing.T) {
	svc := NewClassroomService(&stubClassroomRepo{}, &stubClassroomUsers{}, nil, zap.NewNop())

	_, err := svc.Join(context.Background(), studentClaims(), "ZZZZZZ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListForActorByRole(t *testing.T) {
	repo := &stubClassroomRepo{
		byCreator: []models.Classroom{{ID: "c1"}},
		byCodes:   []models.Classroom{{ID: "c2"}},
	}
	users := &stubClassroomUsers{user: &models.User{ID: "s1", JoinedClassrooms: []string{"A1B2C3"}}}
	svc := NewClassroomService(repo, users, nil, zap.NewNop())

	owned, err := svc.ListForActor(context.Background(), teacherClaims())
	require.NoError(t, err)
	assert.Equal(t, "c1", owned[0].ID)

	joined, err := svc.ListForActor(context.Background(), studentClaims())
	require.NoError(t, err)
	assert.Equal(t, "c2", joined[0].ID)
}

func TestGetDeniesOutsider(t *testing.T) {
	repo := &stubClassroomRepo{byID: &models.Classroom{ID: "c1", Code: "A1B2C3", CreatedBy: "t1"}}
	users := &stubClassroomUsers{user: &models.User{ID: "s1"}}
	svc := NewClassroomService(repo, users, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), studentClaims(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestInviteSkipsUnregisteredEmails(t *testing.T) {
	repo := &stubClassroomRepo{byID: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	users := &stubClassroomUsers{knownEmails: []string{"known@example.com"}}
	notifier := &recordingNotifier{}
	svc := NewClassroomService(repo, users, notifier, zap.NewNop())

	err := svc.Invite(context.Background(), teacherClaims(), "c1", []string{"known@example.com", "stranger@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"known@example.com"}, notifier.emails)
}

func TestInviteNotifiesAllWhenLookupFails(t *testing.T) {
	repo := &stubClassroomRepo{byID: &models.Classroom{ID: "c1", CreatedBy: "t1"}}
	users := &stubClassroomUsers{emailsErr: sql.ErrConnDone}
	notifier := &recordingNotifier{}
	svc := NewClassroomService(repo, users, notifier, zap.NewNop())

	err := svc.Invite(context.Background(), teacherClaims(), "c1", []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, notifier.emails)
}

func TestInviteRequiresOwnership(t *testing.T) {
	repo := &stubClassroomRepo{byID: &models.Classroom{ID: "c1", CreatedBy: "someone-else"}}
	svc := NewClassroomService(repo, &stubClassroomUsers{}, &recordingNotifier{}, zap.NewNop())

	err := svc.Invite(context.Background(), teacherClaims(), "c1", []string{"a@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
