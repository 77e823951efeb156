package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

const standingColumns = `student_id, program_id, major, year_level, current_semester_id, updated_at`

// StudentRepository manages persistence for students and their academic standing.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, external_id, student_no, full_name, campus_id, active, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindStanding returns the academic standing without locking it.
func (r *StudentRepository) FindStanding(ctx context.Context, studentID string) (*models.AcademicStanding, error) {
	var standing models.AcademicStanding
	if err := r.db.GetContext(ctx, &standing, `SELECT `+standingColumns+` FROM student_academic_backgrounds WHERE student_id = $1`, studentID); err != nil {
		return nil, err
	}
	return &standing, nil
}

// FindStandingForUpdate loads and row-locks the academic standing of a student.
func (r *StudentRepository) FindStandingForUpdate(ctx context.Context, exec sqlx.ExtContext, studentID string) (*models.AcademicStanding, error) {
	const query = `SELECT ` + standingColumns + ` FROM student_academic_backgrounds WHERE student_id = $1 FOR UPDATE`
	var standing models.AcademicStanding
	if err := sqlx.GetContext(ctx, pick(r.db, exec), &standing, query, studentID); err != nil {
		return nil, err
	}
	return &standing, nil
}

// UpdateStanding persists year level and current semester.
func (r *StudentRepository) UpdateStanding(ctx context.Context, exec sqlx.ExtContext, standing *models.AcademicStanding) error {
	standing.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_academic_backgrounds SET year_level = :year_level, current_semester_id = :current_semester_id, updated_at = :updated_at WHERE student_id = :student_id`
	if _, err := sqlx.NamedExecContext(ctx, pick(r.db, exec), query, standing); err != nil {
		return fmt.Errorf("update academic standing: %w", err)
	}
	return nil
}
