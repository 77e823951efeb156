package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

const semesterColumns = `id, campus_id, name, school_year, is_active, created_at, updated_at`

// SemesterRepository handles persistence for academic semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository instantiates a semester repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters matching provided filters.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var where whereBuilder
	if filter.CampusID != "" {
		where.add("campus_id = $%d", filter.CampusID)
	}
	if filter.SchoolYear != "" {
		where.add("school_year = $%d", filter.SchoolYear)
	}
	if filter.IsActive != nil {
		where.add("is_active = $%d", *filter.IsActive)
	}

	orderBy := sortClause(filter.SortBy, filter.SortOrder, map[string]string{
		"name":        "name",
		"school_year": "school_year",
		"created_at":  "created_at",
	}, "created_at")
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM semesters%s ORDER BY %s LIMIT %d OFFSET %d", semesterColumns, where.clause(), orderBy, size, offset)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM semesters"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByID loads a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, `SELECT `+semesterColumns+` FROM semesters WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindActive returns the currently active semester.
func (r *SemesterRepository) FindActive(ctx context.Context) (*models.Semester, error) {
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, `SELECT `+semesterColumns+` FROM semesters WHERE is_active = TRUE LIMIT 1`); err != nil {
		return nil, err
	}
	return &semester, nil
}

// Create inserts a new semester record. New semesters start inactive.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now
	semester.IsActive = false

	const query = `INSERT INTO semesters (id, campus_id, name, school_year, is_active, created_at, updated_at) VALUES (:id, :campus_id, :name, :school_year, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Activate marks the semester active and deactivates every other one through exec.
func (r *SemesterRepository) Activate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	target := pick(r.db, exec)
	now := time.Now().UTC()

	if _, err := target.ExecContext(ctx, `UPDATE semesters SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("deactivate other semesters: %w", err)
	}
	res, err := target.ExecContext(ctx, `UPDATE semesters SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("activate semester: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
