package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classdesk/classdesk-api/internal/models"
)

const classroomColumns = `id, name, description, code, created_by, creator_name, invited_emails, created_at`

// ClassroomRepository handles classroom persistence.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// Create inserts a classroom row.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if classroom.ID == "" {
		classroom.ID = uuid.NewString()
	}
	if classroom.CreatedAt.IsZero() {
		classroom.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classrooms
	(id, name, description, code, created_by, creator_name, invited_emails, created_at)
	VALUES (:id, :name, :description, :code, :created_by, :creator_name, :invited_emails, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, classroom); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// GetByID retrieves one classroom row.
func (r *ClassroomRepository) GetByID(ctx context.Context, id string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE id = $1`, classroomColumns)
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// GetByCode retrieves a classroom by its join code.
func (r *ClassroomRepository) GetByCode(ctx context.Context, code string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE code = $1`, classroomColumns)
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, code); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// CodeExists reports whether the join code is already taken.
func (r *ClassroomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM classrooms WHERE code = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check classroom code: %w", err)
	}
	return exists, nil
}

// ListByCreator returns classrooms created by the given teacher.
func (r *ClassroomRepository) ListByCreator(ctx context.Context, creatorID string) ([]models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE created_by = $1 ORDER BY created_at DESC`, classroomColumns)
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, creatorID); err != nil {
		return nil, fmt.Errorf("list classrooms by creator: %w", err)
	}
	return classrooms, nil
}

// ListByCodes returns classrooms matching any of the provided join codes.
func (r *ClassroomRepository) ListByCodes(ctx context.Context, codes []string) ([]models.Classroom, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM classrooms WHERE code IN (?)`, classroomColumns), codes)
	if err != nil {
		return nil, fmt.Errorf("build classrooms-by-code query: %w", err)
	}
	query = r.db.Rebind(query)
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query, args...); err != nil {
		return nil, fmt.Errorf("list classrooms by codes: %w", err)
	}
	return classrooms, nil
}
