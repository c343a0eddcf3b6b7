package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "avatar_url", "active", "joined_classrooms", "last_login", "created_at", "updated_at"}).
		AddRow("1", "student@example.com", "hash", "Student", string(models.RoleStudent), nil, true, pq.StringArray{"A1B2C3"}, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, avatar_url, active, joined_classrooms, last_login, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("student@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, pq.StringArray{"A1B2C3"}, user.JoinedClassrooms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultsJoinedClassrooms(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	// a nil joined set must be stored as the empty array, never NULL, or
	// the membership predicates in AppendJoinedClassroom can't match
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "student@example.com", "hash", "Student", string(models.RoleStudent),
			nil, true, pq.StringArray{}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		ID:           "u1",
		Email:        "student@example.com",
		PasswordHash: "hash",
		FullName:     "Student",
		Role:         models.RoleStudent,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, pq.StringArray{}, user.JoinedClassrooms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendJoinedClassroom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	// both array touches must be NULL-safe for rows predating the insert fix
	mock.ExpectExec(`UPDATE users(?s).*ANY\(COALESCE\(joined_classrooms, '\{\}'\)\)(?s).*array_append\(COALESCE\(joined_classrooms, '\{\}'\), \$2\)`).
		WithArgs("u1", "A1B2C3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendJoinedClassroom(context.Background(), "u1", "A1B2C3")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendJoinedClassroomUserNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs("missing", "A1B2C3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendJoinedClassroom(context.Background(), "missing", "A1B2C3")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAvatarUserNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	url := "https://cdn.example.com/avatars/u1.png"
	mock.ExpectExec("UPDATE users SET avatar_url").
		WithArgs("missing", url).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAvatar(context.Background(), "missing", &url)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
