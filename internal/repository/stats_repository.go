package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-sis-api/internal/models"
)

// StatsRepository runs the aggregate queries behind the statistics snapshot.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// DepartmentCounts counts active students per department through their program.
func (r *StatsRepository) DepartmentCounts(ctx context.Context) ([]models.DepartmentCount, error) {
	const query = `
SELECT d.id AS department_id, d.name AS department_name, COUNT(s.id) AS students
FROM departments d
LEFT JOIN programs p ON p.department_id = d.id
LEFT JOIN student_academic_backgrounds sab ON sab.program_id = p.id
LEFT JOIN students s ON s.id = sab.student_id AND s.active = TRUE
GROUP BY d.id, d.name
ORDER BY d.name ASC`
	var counts []models.DepartmentCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count students per department: %w", err)
	}
	return counts, nil
}

// EnrollmentSummary aggregates records of one semester.
func (r *StatsRepository) EnrollmentSummary(ctx context.Context, semesterID string) (*models.EnrollmentSummary, error) {
	const query = `
SELECT $1::text AS semester_id,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE payment_confirmed) AS payment_confirmed,
       COUNT(*) FILTER (WHERE final_approval_status) AS final_approved
FROM enrollment_records
WHERE semester_id = $1`
	var summary models.EnrollmentSummary
	if err := r.db.GetContext(ctx, &summary, query, semesterID); err != nil {
		return nil, fmt.Errorf("summarise enrollment records: %w", err)
	}
	return &summary, nil
}
